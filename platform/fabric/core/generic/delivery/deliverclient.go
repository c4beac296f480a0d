/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package delivery

import (
	"context"
	"crypto/tls"

	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/core/generic/peer"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/flogging"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var logger = flogging.MustGetLogger("fabric-event-client.delivery")

// DeliverFiltered defines the interface that abstracts deliver filtered grpc calls to peer
type DeliverFiltered interface {
	Send(*common.Envelope) error
	Recv() (*pb.DeliverResponse, error)
	CloseSend() error
}

// DeliverStream defines the interface that abstracts deliver grpc calls to peer
type DeliverStream interface {
	Send(*common.Envelope) error
	Recv() (*pb.DeliverResponse, error)
	CloseSend() error
}

// DeliverClient defines the interface to create a DeliverStream client
type DeliverClient interface {
	// NewDeliverFiltered returns a DeliverFiltered
	NewDeliverFiltered(ctx context.Context, opts ...grpc.CallOption) (DeliverFiltered, error)

	// NewDeliver returns a DeliverStream
	NewDeliver(ctx context.Context, opts ...grpc.CallOption) (DeliverStream, error)

	// Certificate returns tls certificate for the deliver client to peer
	Certificate() *tls.Certificate
}

// deliverClient implements DeliverClient interface
type deliverClient struct {
	client peer.Client
}

func NewDeliverClient(client peer.Client) (DeliverClient, error) {
	return &deliverClient{
		client: client,
	}, nil
}

// NewDeliver creates a DeliverStream client
func (d *deliverClient) NewDeliver(ctx context.Context, opts ...grpc.CallOption) (DeliverStream, error) {
	dc, err := d.client.DeliverClient()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create deliver client for peer %s", d.client.Address())
	}
	df, err := dc.Deliver(ctx, opts...)
	if err != nil {
		rpcStatus, _ := status.FromError(err)
		return nil, errors.Wrapf(err, "failed to new a deliver, rpcStatus=%+v", rpcStatus)
	}
	return df, nil
}

// NewDeliverFiltered creates a DeliverFiltered client
func (d *deliverClient) NewDeliverFiltered(ctx context.Context, opts ...grpc.CallOption) (DeliverFiltered, error) {
	dc, err := d.client.DeliverClient()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create deliver client for peer %s", d.client.Address())
	}
	df, err := dc.DeliverFiltered(ctx, opts...)
	if err != nil {
		rpcStatus, _ := status.FromError(err)
		return nil, errors.Wrapf(err, "failed to new a deliver filtered, rpcStatus=%+v", rpcStatus)
	}
	return df, nil
}

func (d *deliverClient) Certificate() *tls.Certificate {
	cert := d.client.Certificate()
	return &cert
}

// DeliverSend sends the seek envelope on the stream and half-closes it
func DeliverSend(df DeliverStream, envelope *common.Envelope) error {
	err := df.Send(envelope)
	if err := df.CloseSend(); err != nil {
		logger.Warnf("error closing deliver stream: %s", err)
	}
	return err
}
