/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"context"

	"github.com/pkg/errors"
)

// BlockListener watches every block a hub observes. It binds to the shared
// hub of a configured delivery peer unless one is pinned via SetEventHub.
//
// Register and Unregister are not safe for concurrent use on the same
// instance.
type BlockListener struct {
	name         string
	callback     BlockCallback
	opts         Options
	hubs         HubManager
	hub          EventHub
	registration *BlockRegistration
	registered   bool
}

func NewBlockListener(hubs HubManager, callback BlockCallback, opts *Options) *BlockListener {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	return &BlockListener{
		name:     listenerName("block"),
		callback: callback,
		opts:     o,
		hubs:     hubs,
	}
}

// SetEventHub pins the listener to the passed hub
func (l *BlockListener) SetEventHub(hub EventHub) {
	l.hub = hub
}

// IsRegistered returns true if the watch is currently installed
func (l *BlockListener) IsRegistered() bool {
	return l.registered
}

// Register installs the block watch and makes sure the hub is connected
func (l *BlockListener) Register(ctx context.Context) error {
	if l.registered {
		logger.Debugf("listener [%s] is already registered", l.name)
		return nil
	}
	if l.hub == nil {
		hub, err := l.hubs.EventHub(nil, false)
		if err != nil {
			return errors.WithMessagef(err, "listener [%s] failed acquiring an event hub", l.name)
		}
		l.hub = hub
	}
	l.registration = l.hub.RegisterBlockEvent(l.onBlock)
	if err := l.hub.Connect(ctx, l.opts.FullBlock); err != nil {
		l.hub.UnregisterBlockEvent(l.registration)
		l.registration = nil
		return errors.WithMessagef(err, "listener [%s] failed connecting event hub to [%s]", l.name, l.hub.PeerAddress())
	}
	l.registered = true
	return nil
}

// Unregister removes the block watch
func (l *BlockListener) Unregister() {
	if l.hub != nil && l.registration != nil {
		l.hub.UnregisterBlockEvent(l.registration)
	}
	l.registration = nil
	l.registered = false
}

func (l *BlockListener) onBlock(event *BlockEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("listener [%s]: block callback panicked [%s]", l.name, r)
		}
	}()
	l.callback(event)
}

var (
	_ Listener = (*CommitListener)(nil)
	_ Listener = (*BlockListener)(nil)
)
