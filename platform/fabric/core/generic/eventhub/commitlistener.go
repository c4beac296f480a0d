/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// CommitCallback is invoked exactly once when the watched transaction
// reaches its final validation code, or every time the event stream fails.
// On failure err is set and the remaining arguments carry zero values.
type CommitCallback func(err error, txID string, code pb.TxValidationCode, blockNumber uint64)

// CommitListener watches one transaction id on one hub and delivers its
// final validation code to the callback.
//
// A listener binds to a hub lazily: callers may pin one via SetEventHub,
// otherwise Register acquires a replay hub from the manager so a commit
// that happened before registration is still observed. When the bound hub
// already watches the same transaction id, Register transparently
// substitutes the hub with another one, so the id is never registered
// twice on the same hub.
//
// Register and Unregister are not safe for concurrent use on the same
// instance.
type CommitListener struct {
	name         string
	txID         string
	callback     CommitCallback
	opts         Options
	hubs         HubManager
	hub          EventHub
	peerConfig   *grpc.ConnectionConfig
	registration *TxRegistration
	registered   bool
}

// NewCommitListener returns a listener for the passed transaction id.
// opts may be nil, the defaults then apply (shared hub, unregister after
// the first delivery).
func NewCommitListener(hubs HubManager, txID string, callback CommitCallback, opts *Options) *CommitListener {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	return &CommitListener{
		name:     listenerName(txID),
		txID:     txID,
		callback: callback,
		opts:     o,
		hubs:     hubs,
	}
}

// SetEventHub pins the listener to the passed hub. With Options.FixedEventHub
// set the listener will never trade it for a shared one.
func (l *CommitListener) SetEventHub(hub EventHub) {
	l.hub = hub
	if hub != nil {
		l.peerConfig = hub.PeerConfig()
	}
}

// TxID returns the transaction id this listener watches
func (l *CommitListener) TxID() string {
	return l.txID
}

// IsRegistered returns true if the watch is currently installed
func (l *CommitListener) IsRegistered() bool {
	return l.registered
}

// Register installs the watch and makes sure the hub is connected.
// It is a no-op if the watch is already installed.
func (l *CommitListener) Register(ctx context.Context) error {
	if l.registered {
		logger.Debugf("listener [%s] is already registered", l.name)
		return nil
	}
	if l.hub == nil {
		return l.acquireEventHub(ctx)
	}
	if l.hub.HasTxRegistration(l.txID) {
		return l.substituteEventHub(ctx)
	}

	registration, err := l.hub.RegisterTxEvent(l.txID, l.onEvent, l.onError, l.opts.registration())
	if err != nil {
		return errors.WithMessagef(err, "listener [%s] failed registering transaction [%s]", l.name, l.txID)
	}
	l.registration = registration
	if err := l.hub.Connect(ctx, l.opts.FullBlock); err != nil {
		l.hub.UnregisterTxEvent(l.txID)
		l.registration = nil
		return errors.WithMessagef(err, "listener [%s] failed connecting event hub to [%s]", l.name, l.hub.PeerAddress())
	}
	l.registered = true
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("listener [%s] registered on event hub [%s]", l.name, l.hub.PeerAddress())
	}
	return nil
}

// Unregister removes the watch. The hub connection is left alone unless
// the listener owns it (Options.Disconnect).
func (l *CommitListener) Unregister() {
	if l.hub != nil && l.registration != nil {
		l.hub.UnregisterTxEvent(l.txID)
	}
	l.registration = nil
	l.registered = false
}

// acquireEventHub binds a hub when none is set and retries the registration.
// The acquired hub is owned by this listener, so it is disconnected after
// the first delivery.
func (l *CommitListener) acquireEventHub(ctx context.Context) error {
	var hub EventHub
	var err error
	switch {
	case l.opts.FixedEventHub && l.peerConfig == nil:
		return errors.Errorf("listener [%s]: a fixed event hub was requested but none was supplied", l.name)
	case l.opts.FixedEventHub:
		hub, err = l.hubs.FixedEventHub(l.peerConfig)
	default:
		hub, err = l.hubs.ReplayEventHub()
	}
	if err != nil {
		return errors.WithMessagef(err, "listener [%s] failed acquiring an event hub", l.name)
	}
	l.hub = hub
	l.peerConfig = hub.PeerConfig()
	l.opts.Disconnect = true
	return l.Register(ctx)
}

// substituteEventHub trades the bound hub for one not yet watching this
// transaction id and retries the registration
func (l *CommitListener) substituteEventHub(ctx context.Context) error {
	peerConfig := l.hub.PeerConfig()
	var hub EventHub
	var err error
	if l.opts.FixedEventHub {
		hub, err = l.hubs.FixedEventHub(peerConfig)
	} else {
		hub, err = l.hubs.EventHub(peerConfig, true)
	}
	if err != nil {
		return errors.WithMessagef(err, "listener [%s] failed substituting event hub for transaction [%s]", l.name, l.txID)
	}
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("listener [%s] substituted event hub, transaction [%s] already watched on [%s]", l.name, l.txID, l.hub.PeerAddress())
	}
	l.hub = hub
	l.peerConfig = hub.PeerConfig()
	return l.Register(ctx)
}

// onEvent is invoked from the hub's dispatch goroutine with the final
// validation code of the watched transaction
func (l *CommitListener) onEvent(txID string, code pb.TxValidationCode, blockNumber interface{}) {
	block, err := blockNum(blockNumber)
	if err != nil {
		logger.Errorf("listener [%s]: discarding event for transaction [%s]: %s", l.name, txID, err)
		return
	}
	l.invokeCallback(nil, txID, code, block)
	if l.registration != nil && l.registration.Unregister {
		l.Unregister()
	}
	if l.opts.Disconnect && l.hub != nil {
		l.hub.Disconnect()
	}
}

// onError is invoked from the hub's dispatch goroutine when the event
// stream fails. The watch stays installed, callers decide what to do next.
func (l *CommitListener) onError(err error) {
	l.invokeCallback(err, "", pb.TxValidationCode(0), 0)
}

// invokeCallback shields the listener lifecycle from misbehaving callbacks
func (l *CommitListener) invokeCallback(err error, txID string, code pb.TxValidationCode, blockNumber uint64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("listener [%s]: callback panicked [%s]", l.name, r)
		}
	}()
	l.callback(err, txID, code, blockNumber)
}

// blockNum coerces the block number representations event sources produce
// into a uint64
func blockNum(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int:
		if n < 0 {
			return 0, errors.Errorf("negative block number [%d]", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, errors.Errorf("negative block number [%d]", n)
		}
		return uint64(n), nil
	case float64:
		if n < 0 {
			return 0, errors.Errorf("negative block number [%f]", n)
		}
		return uint64(n), nil
	case json.Number:
		return strconv.ParseUint(n.String(), 10, 64)
	case string:
		res, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid block number [%s]", n)
		}
		return res, nil
	case nil:
		return 0, errors.New("block number is missing")
	default:
		return 0, errors.Errorf("unexpected block number representation [%T]", v)
	}
}
