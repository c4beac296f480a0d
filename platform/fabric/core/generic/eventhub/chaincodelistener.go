/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"sync"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/events"
)

// ChaincodeListener exposes the chaincode events a hub publishes on the
// event bus as a channel. Events are sourced from full blocks, so the hub
// feeding the bus must be connected with fullBlock set.
type ChaincodeListener struct {
	sync.Mutex
	chaincodeName string
	subscriber    events.Subscriber
	ch            chan *ChaincodeEvent
	closing       bool
}

func NewChaincodeListener(subscriber events.Subscriber, chaincodeName string) *ChaincodeListener {
	l := &ChaincodeListener{
		chaincodeName: chaincodeName,
		subscriber:    subscriber,
		ch:            make(chan *ChaincodeEvent, 100),
	}
	subscriber.Subscribe(chaincodeName, l)
	return l
}

// ChaincodeEvents returns the channel the events are delivered on
func (l *ChaincodeListener) ChaincodeEvents() chan *ChaincodeEvent {
	return l.ch
}

// Close unsubscribes from the bus and closes the event channel
func (l *ChaincodeListener) Close() {
	l.Lock()
	defer l.Unlock()
	if l.closing {
		return
	}
	l.closing = true
	l.subscriber.Unsubscribe(l.chaincodeName, l)
	close(l.ch)
}

// OnReceive implements events.Listener
func (l *ChaincodeListener) OnReceive(event events.Event) {
	l.Lock()
	defer l.Unlock()
	if l.closing {
		return
	}
	chaincodeEvent, ok := event.Message().(*ChaincodeEvent)
	if !ok {
		logger.Errorf("unexpected message type on topic [%s]: %T", l.chaincodeName, event.Message())
		return
	}
	select {
	case l.ch <- chaincodeEvent:
	default:
		logger.Warnf("dropping chaincode event for [%s], channel full", l.chaincodeName)
	}
}
