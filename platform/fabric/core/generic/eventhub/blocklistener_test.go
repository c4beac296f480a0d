/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockListenerAcquiresSharedHub(t *testing.T) {
	manager := newFakeHubManager()

	var numbers []uint64
	listener := NewBlockListener(manager, func(event *BlockEvent) {
		numbers = append(numbers, event.Number)
	}, nil)

	require.NoError(t, listener.Register(context.Background()))
	require.Len(t, manager.shared, 1)
	hub := manager.shared["default:7051"]
	require.NotNil(t, hub)
	require.Len(t, hub.blockRegs, 1)
	assert.True(t, hub.connected)
	assert.True(t, listener.IsRegistered())

	hub.blockRegs[0].OnBlock(&BlockEvent{Number: 4})
	assert.Equal(t, []uint64{4}, numbers)

	listener.Unregister()
	assert.Empty(t, hub.blockRegs)
	assert.False(t, listener.IsRegistered())
}

func TestBlockListenerFullBlockOption(t *testing.T) {
	manager := newFakeHubManager()
	listener := NewBlockListener(manager, func(*BlockEvent) {}, &Options{FullBlock: true})

	require.NoError(t, listener.Register(context.Background()))
	assert.True(t, manager.shared["default:7051"].fullBlock)
}

func TestBlockListenerConnectFailureRollsBack(t *testing.T) {
	manager := newFakeHubManager()
	hub := newFakeHub("peer0:7051")
	hub.connectErr = errors.New("dial failed")
	listener := NewBlockListener(manager, func(*BlockEvent) {}, nil)
	listener.SetEventHub(hub)

	require.Error(t, listener.Register(context.Background()))
	assert.Empty(t, hub.blockRegs)
	assert.False(t, listener.IsRegistered())
}

func TestBlockListenerCallbackPanicIsolated(t *testing.T) {
	manager := newFakeHubManager()
	hub := newFakeHub("peer0:7051")
	listener := NewBlockListener(manager, func(*BlockEvent) {
		panic("boom")
	}, nil)
	listener.SetEventHub(hub)

	require.NoError(t, listener.Register(context.Background()))
	assert.NotPanics(t, func() {
		hub.blockRegs[0].OnBlock(&BlockEvent{Number: 1})
	})
}
