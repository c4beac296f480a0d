/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package events

// Event models an event carried by the event system
type Event interface {
	// Topic returns the topic this event is published under
	Topic() string
	// Message returns the payload of this event
	Message() interface{}
}

// Listener is implemented by receivers of events
type Listener interface {
	// OnReceive is called when an event is published under a topic the listener subscribed to
	OnReceive(event Event)
}

// Publisher publishes events to all subscribers of the event's topic
type Publisher interface {
	Publish(event Event)
}

// Subscriber manages subscriptions of listeners to topics
type Subscriber interface {
	Subscribe(topic string, receiver Listener)
	Unsubscribe(topic string, receiver Listener)
}
