/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
fabric:
  testnet:
    defaultChannel: testchannel
    events:
      queueSize: 50
      waitForEventTimeout: 30s
    peers:
      - address: 127.0.0.1:7051
        usage: delivery
      - address: 127.0.0.1:8051
`

func newTestProvider(t *testing.T) *Provider {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.yaml"), []byte(testConfig), 0o644))
	provider, err := NewProvider(dir)
	require.NoError(t, err)
	return provider
}

func TestNewService(t *testing.T) {
	service, err := NewService(newTestProvider(t), "testnet", false)
	require.NoError(t, err)

	assert.Equal(t, "testnet", service.NetworkName())
	assert.Equal(t, "testchannel", service.DefaultChannel())
	assert.Equal(t, 50, service.EventQueueSize())
	assert.Equal(t, 30*time.Second, service.WaitForEventTimeout())
}

func TestNewServiceUnknownNetwork(t *testing.T) {
	_, err := NewService(newTestProvider(t), "unknown", false)
	assert.Error(t, err)
}

func TestPickPeer(t *testing.T) {
	service, err := NewService(newTestProvider(t), "testnet", false)
	require.NoError(t, err)

	delivery := service.PickPeer(driver.PeerForDelivery)
	require.NotNil(t, delivery)
	assert.Equal(t, "127.0.0.1:7051", delivery.Address)
	assert.Equal(t, DefaultConnectionTimeout, delivery.ConnectionTimeout)

	// no dedicated query peer, fall back to the anything pool
	query := service.PickPeer(driver.PeerForQuery)
	require.NotNil(t, query)
	assert.Equal(t, "127.0.0.1:8051", query.Address)
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.yaml"), []byte(`
fabric:
  peers:
    - address: 127.0.0.1:9051
`), 0o644))
	provider, err := NewProvider(dir)
	require.NoError(t, err)

	service, err := NewService(provider, "somenet", true)
	require.NoError(t, err)
	assert.Equal(t, defaultEventQueueSize, service.EventQueueSize())
	assert.Equal(t, defaultWaitForEventTimeout, service.WaitForEventTimeout())
	assert.NotNil(t, service.PickPeer(driver.PeerForDelivery))
}
