/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

// Options configures a listener.
// The zero value asks for a shared hub, filtered blocks, and automatic
// unregistration after the first delivery.
type Options struct {
	// FixedEventHub pins the listener to the hub supplied via SetEventHub.
	// The listener will never substitute the hub with a shared one.
	FixedEventHub bool

	// Disconnect tears down the hub connection after the first delivery.
	// It is forced to true when the listener acquires a hub on its own.
	Disconnect bool

	// Unregister removes the watch after the first delivery.
	// When nil, it defaults to true. A value set by the caller always wins,
	// including an explicit false.
	Unregister *bool

	// StartBlock asks the hub to source events starting from the passed
	// block number instead of live events only
	StartBlock *uint64

	// FullBlock asks the hub for full block data instead of the filtered stream
	FullBlock bool
}

// RegistrationOptions is the resolved slice of Options forwarded to the hub
type RegistrationOptions struct {
	// Unregister is stored in the hub-side registration record and read back
	// by the listener at event time
	Unregister bool

	// StartBlock is forwarded to the hub, it takes effect before the hub connects
	StartBlock *uint64
}

func (o *Options) unregisterOrDefault() bool {
	if o.Unregister != nil {
		return *o.Unregister
	}
	return true
}

// registration resolves the options forwarded to the hub
func (o *Options) registration() RegistrationOptions {
	return RegistrationOptions{
		Unregister: o.unregisterOrDefault(),
		StartBlock: o.StartBlock,
	}
}
