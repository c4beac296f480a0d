/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"time"

	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
)

// PeerFunctionType classifies what a configured peer is used for
type PeerFunctionType int

const (
	// PeerForAnything defines the type of peer that can be used for any purpose
	PeerForAnything = iota
	// PeerForDelivery defines the type of peer to be used for delivery and event streams
	PeerForDelivery
	// PeerForQuery defines the type of peer to be used for ledger queries
	PeerForQuery
)

// Configuration models a configuration registry
type Configuration interface {
	// GetString returns the value associated with the key as a string
	GetString(key string) string
	// GetDuration returns the value associated with the key as a duration
	GetDuration(key string) time.Duration
	// GetBool returns the value associated with the key as a boolean
	GetBool(key string) bool
	// GetInt returns the value associated with the key as an int
	GetInt(key string) int
	// IsSet checks to see if the key has been set in any of the data locations
	IsSet(key string) bool
	// UnmarshalKey takes a single key and unmarshals it into a Struct
	UnmarshalKey(key string, rawVal interface{}) error
	// TranslatePath translates the passed path relative to the config path
	TranslatePath(path string) string
}

// ConfigService gives access to the network configuration consumed by the event layer
type ConfigService interface {
	// NetworkName returns the name of the network this configuration refers to
	NetworkName() string
	// PickPeer returns a peer configured for the passed function.
	// If multiple peers are configured for that function, one is picked among them.
	PickPeer(funcType PeerFunctionType) *grpc.ConnectionConfig
}

// SigningIdentity signs messages on behalf of the client identity
type SigningIdentity interface {
	// Serialize returns the byte representation of this identity
	Serialize() ([]byte, error)
	// Sign signs the passed message
	Sign(msg []byte) ([]byte, error)
}
