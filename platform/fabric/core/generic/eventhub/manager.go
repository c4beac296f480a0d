/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"sync"

	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/core/generic/delivery"
	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/core/generic/peer"
	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/driver"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/events"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/hash"
	"github.com/hyperledger/fabric/common/metrics"
	"github.com/hyperledger/fabric/common/metrics/disabled"
	"github.com/pkg/errors"
)

var (
	_ EventHub   = (*Hub)(nil)
	_ HubManager = (*Manager)(nil)
)

// Manager hands out hub handles. Hubs bound to the same peer are shared
// across listeners unless a dedicated one is requested.
type Manager struct {
	configService driver.ConfigService
	channel       string
	clients       peer.ClientFactory
	signer        driver.SigningIdentity
	hasher        delivery.Hasher
	publisher     events.Publisher
	metrics       *Metrics

	mutex  sync.Mutex
	shared map[string]*Hub
	hubs   []*Hub
}

// NewManager returns a hub manager for the passed channel.
// publisher may be nil, hubs then skip the event bus. hasher defaults to
// SHA-256, metricsProvider to disabled metrics.
func NewManager(configService driver.ConfigService, channel string, clients peer.ClientFactory, signer driver.SigningIdentity, hasher delivery.Hasher, publisher events.Publisher, metricsProvider metrics.Provider) *Manager {
	if hasher == nil {
		hasher = hash.SHA256Hasher{}
	}
	if metricsProvider == nil {
		metricsProvider = &disabled.Provider{}
	}
	return &Manager{
		configService: configService,
		channel:       channel,
		clients:       clients,
		signer:        signer,
		hasher:        hasher,
		publisher:     publisher,
		metrics:       NewMetrics(metricsProvider),
		shared:        map[string]*Hub{},
	}
}

// EventHub returns a hub bound to the passed peer, or to a configured
// delivery peer when nil is passed. Unless forceNew is set, the hub is
// shared with other listeners bound to the same peer address.
func (m *Manager) EventHub(cc *grpc.ConnectionConfig, forceNew bool) (EventHub, error) {
	cc, err := m.resolvePeer(cc)
	if err != nil {
		return nil, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !forceNew {
		if hub, ok := m.shared[cc.Address]; ok {
			return hub, nil
		}
	}
	hub := m.newHub(cc, false)
	if !forceNew {
		m.shared[cc.Address] = hub
	}
	return hub, nil
}

// FixedEventHub returns a dedicated, never shared hub bound to the passed peer
func (m *Manager) FixedEventHub(cc *grpc.ConnectionConfig) (EventHub, error) {
	cc, err := m.resolvePeer(cc)
	if err != nil {
		return nil, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.newHub(cc, false), nil
}

// ReplayEventHub returns a dedicated hub that seeks from the oldest
// position, so it observes commits that happened before the watch was
// installed. Replay hubs are never shared, each one sources history for
// its own registrations.
func (m *Manager) ReplayEventHub() (EventHub, error) {
	cc, err := m.resolvePeer(nil)
	if err != nil {
		return nil, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.newHub(cc, true), nil
}

// Close disconnects every hub this manager handed out
func (m *Manager) Close() {
	m.mutex.Lock()
	hubs := make([]*Hub, len(m.hubs))
	copy(hubs, m.hubs)
	m.mutex.Unlock()
	for _, hub := range hubs {
		hub.Disconnect()
	}
}

func (m *Manager) resolvePeer(cc *grpc.ConnectionConfig) (*grpc.ConnectionConfig, error) {
	if cc != nil {
		return cc, nil
	}
	cc = m.configService.PickPeer(driver.PeerForDelivery)
	if cc == nil {
		return nil, errors.Errorf("no delivery peer configured for network [%s]", m.configService.NetworkName())
	}
	return cc, nil
}

// newHub mints a hub handle. Caller holds the manager mutex.
func (m *Manager) newHub(cc *grpc.ConnectionConfig, replay bool) *Hub {
	hub := newHub(m.configService.NetworkName(), m.channel, cc, m.clients, m.signer, m.hasher, m.publisher, m.metrics, replay)
	m.hubs = append(m.hubs, hub)
	return hub
}
