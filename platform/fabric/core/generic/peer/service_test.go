/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"crypto/tls"
	"testing"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	address string
}

func (f *fakeClient) Address() string                      { return f.address }
func (f *fakeClient) Certificate() tls.Certificate         { return tls.Certificate{} }
func (f *fakeClient) DeliverClient() (pb.DeliverClient, error) { return nil, nil }
func (f *fakeClient) Close()                               {}

type countingFactory struct {
	calls int
}

func (c *countingFactory) NewClient(cc grpc.ConnectionConfig) (Client, error) {
	c.calls++
	return &fakeClient{address: cc.Address}, nil
}

func TestCachingClientFactory(t *testing.T) {
	factory := &countingFactory{}
	caching := NewCachingClientFactory()
	caching.ClientFactory = factory

	first, err := caching.NewClient(grpc.ConnectionConfig{Address: "127.0.0.1:7051"})
	require.NoError(t, err)
	second, err := caching.NewClient(grpc.ConnectionConfig{Address: "127.0.0.1:7051"})
	require.NoError(t, err)
	other, err := caching.NewClient(grpc.ConnectionConfig{Address: "127.0.0.1:8051"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, factory.calls)
}
