/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"testing"

	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/core/generic/peer"
	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/driver"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigService struct {
	deliveryPeer *grpc.ConnectionConfig
}

func (c *fakeConfigService) NetworkName() string {
	return "testnet"
}

func (c *fakeConfigService) PickPeer(funcType driver.PeerFunctionType) *grpc.ConnectionConfig {
	if funcType == driver.PeerForDelivery {
		return c.deliveryPeer
	}
	return nil
}

func testManager(deliveryPeer *grpc.ConnectionConfig) *Manager {
	return NewManager(
		&fakeConfigService{deliveryPeer: deliveryPeer},
		"testchannel",
		peer.GRPCClientFactory{},
		fakeSigner{},
		nil,
		nil,
		nil,
	)
}

func TestManagerSharesHubsByAddress(t *testing.T) {
	manager := testManager(nil)
	cc := &grpc.ConnectionConfig{Address: "peer0:7051"}

	h1, err := manager.EventHub(cc, false)
	require.NoError(t, err)
	h2, err := manager.EventHub(cc, false)
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	other, err := manager.EventHub(&grpc.ConnectionConfig{Address: "peer1:7051"}, false)
	require.NoError(t, err)
	assert.NotSame(t, h1, other)
}

func TestManagerForceNewIsNeverShared(t *testing.T) {
	manager := testManager(nil)
	cc := &grpc.ConnectionConfig{Address: "peer0:7051"}

	shared, err := manager.EventHub(cc, false)
	require.NoError(t, err)
	forced, err := manager.EventHub(cc, true)
	require.NoError(t, err)
	assert.NotSame(t, shared, forced)

	// the forced hub did not replace the shared one
	again, err := manager.EventHub(cc, false)
	require.NoError(t, err)
	assert.Same(t, shared, again)
}

func TestManagerFixedHubsAreDedicated(t *testing.T) {
	manager := testManager(nil)
	cc := &grpc.ConnectionConfig{Address: "peer0:7051"}

	shared, err := manager.EventHub(cc, false)
	require.NoError(t, err)
	f1, err := manager.FixedEventHub(cc)
	require.NoError(t, err)
	f2, err := manager.FixedEventHub(cc)
	require.NoError(t, err)
	assert.NotSame(t, shared, f1)
	assert.NotSame(t, f1, f2)
}

func TestManagerReplayHubUsesDeliveryPeer(t *testing.T) {
	manager := testManager(&grpc.ConnectionConfig{Address: "delivery:7051"})

	hub, err := manager.ReplayEventHub()
	require.NoError(t, err)
	assert.Equal(t, "delivery:7051", hub.PeerAddress())
	assert.True(t, hub.(*Hub).replay)

	other, err := manager.ReplayEventHub()
	require.NoError(t, err)
	assert.NotSame(t, hub, other)
}

func TestManagerNilPeerFallsBackToConfiguration(t *testing.T) {
	manager := testManager(&grpc.ConnectionConfig{Address: "delivery:7051"})

	hub, err := manager.EventHub(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "delivery:7051", hub.PeerAddress())
}

func TestManagerNoDeliveryPeerConfigured(t *testing.T) {
	manager := testManager(nil)

	_, err := manager.ReplayEventHub()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no delivery peer configured")

	_, err = manager.EventHub(nil, false)
	require.Error(t, err)
}

func TestManagerClose(t *testing.T) {
	manager := testManager(&grpc.ConnectionConfig{Address: "delivery:7051"})

	h1, err := manager.EventHub(nil, false)
	require.NoError(t, err)
	h2, err := manager.ReplayEventHub()
	require.NoError(t, err)

	assert.NotPanics(t, manager.Close)
	assert.False(t, h1.(*Hub).IsConnected())
	assert.False(t, h2.(*Hub).IsConnected())
}
