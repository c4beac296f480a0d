/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"context"
	"fmt"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/flogging"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	"go.uber.org/atomic"
)

var logger = flogging.MustGetLogger("fabric-event-client.eventhub")

// Listener is the capability shared by all event listener kinds
// (transaction commit, block, chaincode).
type Listener interface {
	// Register installs the watch this listener stands for.
	// It is not safe to call concurrently with itself on the same instance.
	Register(ctx context.Context) error

	// Unregister removes the watch. Safe to call even if Register never succeeded.
	Unregister()

	// IsRegistered returns true if the watch is currently installed
	IsRegistered() bool
}

// EventHub models the slice of hub behavior the listeners consume
type EventHub interface {
	// RegisterTxEvent installs a watch for the passed transaction id.
	// Registering the same transaction id twice on the same hub is an error.
	RegisterTxEvent(txID string, onEvent TxEventCallback, onError TxErrorCallback, opts RegistrationOptions) (*TxRegistration, error)

	// UnregisterTxEvent removes the watch for the passed transaction id, if any
	UnregisterTxEvent(txID string)

	// HasTxRegistration returns true if the hub already watches the passed transaction id
	HasTxRegistration(txID string) bool

	// RegisterBlockEvent installs a block watch
	RegisterBlockEvent(callback BlockCallback) *BlockRegistration

	// UnregisterBlockEvent removes the passed block watch
	UnregisterBlockEvent(registration *BlockRegistration)

	// Connect makes sure the underlying event stream is open.
	// With fullBlock set, the hub sources full blocks instead of filtered ones.
	Connect(ctx context.Context, fullBlock bool) error

	// Disconnect tears down the underlying event stream, keeping the registrations
	Disconnect()

	// PeerAddress returns the address of the peer this hub is bound to, for diagnostics
	PeerAddress() string

	// PeerConfig returns the connection configuration of the peer this hub is bound to
	PeerConfig() *grpc.ConnectionConfig
}

// HubManager supplies hub handles to listeners
type HubManager interface {
	// EventHub returns a hub bound to the passed peer, or to a configured
	// delivery peer when nil is passed. Unless forceNew is set, hubs are
	// shared across listeners bound to the same peer.
	EventHub(peer *grpc.ConnectionConfig, forceNew bool) (EventHub, error)

	// FixedEventHub returns a dedicated, never shared hub bound to the passed peer
	FixedEventHub(peer *grpc.ConnectionConfig) (EventHub, error)

	// ReplayEventHub returns a hub that sources historical plus live events,
	// covering watches installed after the fact
	ReplayEventHub() (EventHub, error)
}

var listenerSequence = atomic.NewUint64(0)

// listenerName disambiguates listener instances watching the same transaction.
// A sequence number keeps the names deterministic in tests.
func listenerName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, listenerSequence.Inc())
}
