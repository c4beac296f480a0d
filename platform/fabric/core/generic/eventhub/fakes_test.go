/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"context"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// fakeHub is an in-memory EventHub for listener tests
type fakeHub struct {
	peer        *grpc.ConnectionConfig
	regs        map[string]*TxRegistration
	blockRegs   []*BlockRegistration
	connected   bool
	connectErr  error
	fullBlock   bool
	disconnects int
}

func newFakeHub(address string) *fakeHub {
	return &fakeHub{
		peer: &grpc.ConnectionConfig{Address: address},
		regs: map[string]*TxRegistration{},
	}
}

func (h *fakeHub) RegisterTxEvent(txID string, onEvent TxEventCallback, onError TxErrorCallback, opts RegistrationOptions) (*TxRegistration, error) {
	if _, ok := h.regs[txID]; ok {
		return nil, errors.Errorf("transaction [%s] is already registered", txID)
	}
	reg := &TxRegistration{TxID: txID, Unregister: opts.Unregister, OnEvent: onEvent, OnError: onError}
	h.regs[txID] = reg
	return reg, nil
}

func (h *fakeHub) UnregisterTxEvent(txID string) {
	delete(h.regs, txID)
}

func (h *fakeHub) HasTxRegistration(txID string) bool {
	_, ok := h.regs[txID]
	return ok
}

func (h *fakeHub) RegisterBlockEvent(callback BlockCallback) *BlockRegistration {
	reg := &BlockRegistration{ID: "block-reg", OnBlock: callback}
	h.blockRegs = append(h.blockRegs, reg)
	return reg
}

func (h *fakeHub) UnregisterBlockEvent(registration *BlockRegistration) {
	for i, reg := range h.blockRegs {
		if reg == registration {
			h.blockRegs = append(h.blockRegs[:i], h.blockRegs[i+1:]...)
			return
		}
	}
}

func (h *fakeHub) Connect(ctx context.Context, fullBlock bool) error {
	if h.connectErr != nil {
		return h.connectErr
	}
	h.connected = true
	h.fullBlock = fullBlock
	return nil
}

func (h *fakeHub) Disconnect() {
	h.disconnects++
	h.connected = false
}

func (h *fakeHub) PeerAddress() string {
	return h.peer.Address
}

func (h *fakeHub) PeerConfig() *grpc.ConnectionConfig {
	return h.peer
}

// fire simulates the hub observing the final validation code of txID
func (h *fakeHub) fire(txID string, code pb.TxValidationCode, blockNumber interface{}) {
	if reg, ok := h.regs[txID]; ok {
		reg.OnEvent(txID, code, blockNumber)
	}
}

// fail simulates a stream error
func (h *fakeHub) fail(err error) {
	for _, reg := range h.regs {
		if reg.OnError != nil {
			reg.OnError(err)
		}
	}
}

// fakeHubManager hands out fakeHubs and records which flavor was asked for
type fakeHubManager struct {
	shared    map[string]*fakeHub
	forced    []*fakeHub
	fixed     []*fakeHub
	replay    []*fakeHub
	replayErr error
}

func newFakeHubManager() *fakeHubManager {
	return &fakeHubManager{shared: map[string]*fakeHub{}}
}

func (m *fakeHubManager) EventHub(cc *grpc.ConnectionConfig, forceNew bool) (EventHub, error) {
	address := "default:7051"
	if cc != nil {
		address = cc.Address
	}
	if forceNew {
		hub := newFakeHub(address)
		m.forced = append(m.forced, hub)
		return hub, nil
	}
	if hub, ok := m.shared[address]; ok {
		return hub, nil
	}
	hub := newFakeHub(address)
	m.shared[address] = hub
	return hub, nil
}

func (m *fakeHubManager) FixedEventHub(cc *grpc.ConnectionConfig) (EventHub, error) {
	address := "default:7051"
	if cc != nil {
		address = cc.Address
	}
	hub := newFakeHub(address)
	m.fixed = append(m.fixed, hub)
	return hub, nil
}

func (m *fakeHubManager) ReplayEventHub() (EventHub, error) {
	if m.replayErr != nil {
		return nil, m.replayErr
	}
	hub := newFakeHub("replay:7051")
	m.replay = append(m.replay, hub)
	return hub, nil
}

var (
	_ EventHub   = (*fakeHub)(nil)
	_ HubManager = (*fakeHubManager)(nil)
)
