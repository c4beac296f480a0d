/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"crypto/tls"
	"sync"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	grpc2 "google.golang.org/grpc"
)

// Client models a client for communicating with a peer
type Client interface {
	// Address returns the address of the remote peer
	Address() string

	// Certificate returns the TLS client certificate (if available)
	Certificate() tls.Certificate

	// DeliverClient returns a client for the Deliver service
	DeliverClient() (pb.DeliverClient, error)

	// Close closes the connection to the remote peer
	Close()
}

// GRPCClient represents a grpc-based client for communicating with a peer
type GRPCClient struct {
	client  *grpc.Client
	address string
	sn      string

	lock sync.Mutex
	conn *grpc2.ClientConn
}

// NewGRPCClient creates a client out of the passed connection configuration
func NewGRPCClient(config grpc.ConnectionConfig) (*GRPCClient, error) {
	client, err := grpc.CreateGRPCClient(&config)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed creating grpc client for [%s]", config.Address)
	}
	return &GRPCClient{
		client:  client,
		address: config.Address,
		sn:      config.ServerNameOverride,
	}, nil
}

func (c *GRPCClient) Address() string {
	return c.address
}

func (c *GRPCClient) Certificate() tls.Certificate {
	return c.client.Certificate()
}

func (c *GRPCClient) DeliverClient() (pb.DeliverClient, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, errors.WithMessagef(err, "deliver client failed to connect to %s", c.address)
	}
	return pb.NewDeliverClient(conn), nil
}

func (c *GRPCClient) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			logger.Warnf("error closing connection to [%s]: %s", c.address, err)
		}
		c.conn = nil
	}
}

func (c *GRPCClient) connection() (*grpc2.ClientConn, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := c.client.NewConnection(c.address, grpc.ServerNameOverride(c.sn))
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c.conn, nil
}
