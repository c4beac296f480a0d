/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"sync"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/flogging"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
)

var logger = flogging.MustGetLogger("fabric-event-client.peer")

// ClientFactory creates clients for the passed connection configuration
type ClientFactory interface {
	NewClient(cc grpc.ConnectionConfig) (Client, error)
}

// GRPCClientFactory mints a fresh client for each call
type GRPCClientFactory struct{}

func (GRPCClientFactory) NewClient(cc grpc.ConnectionConfig) (Client, error) {
	return NewGRPCClient(cc)
}

// CachingClientFactory reuses clients, one per peer address
type CachingClientFactory struct {
	ClientFactory ClientFactory

	lock  sync.Mutex
	cache map[string]Client
}

func NewCachingClientFactory() *CachingClientFactory {
	return &CachingClientFactory{
		ClientFactory: GRPCClientFactory{},
		cache:         map[string]Client{},
	}
}

func (c *CachingClientFactory) NewClient(cc grpc.ConnectionConfig) (Client, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if client, ok := c.cache[cc.Address]; ok {
		return client, nil
	}
	client, err := c.ClientFactory.NewClient(cc)
	if err != nil {
		return nil, err
	}
	c.cache[cc.Address] = client
	logger.Debugf("created new peer client for [%s]", cc.Address)
	return client, nil
}
