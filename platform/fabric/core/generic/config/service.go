/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"math/rand"
	"time"

	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/driver"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/flogging"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	"github.com/pkg/errors"
)

const (
	defaultEventQueueSize      = 1000
	defaultWaitForEventTimeout = 300 * time.Second

	// DefaultConnectionTimeout is used for peers that do not set one explicitly
	DefaultConnectionTimeout = 10 * time.Second
)

var logger = flogging.MustGetLogger("fabric-event-client.config")

var funcTypeMap = map[string]driver.PeerFunctionType{
	"":         driver.PeerForAnything,
	"delivery": driver.PeerForDelivery,
	"query":    driver.PeerForQuery,
}

// Service exposes the typed network configuration of one fabric network
type Service struct {
	driver.Configuration
	name   string
	prefix string

	peerMapping map[driver.PeerFunctionType][]*grpc.ConnectionConfig
}

// NewService creates a configuration service for the network with the passed name.
// If the network is not configured and defaultConfig is true, the top-level fabric
// section is used instead.
func NewService(configuration driver.Configuration, name string, defaultConfig bool) (*Service, error) {
	var prefix string
	switch {
	case configuration.IsSet("fabric." + name):
		prefix = name + "."
	case defaultConfig:
		prefix = ""
	default:
		return nil, errors.Errorf("configuration for [%s] not found", name)
	}

	s := &Service{
		Configuration: configuration,
		name:          name,
		prefix:        prefix,
	}
	if err := s.loadPeers(); err != nil {
		return nil, err
	}
	return s, nil
}

// NetworkName returns the name of the network this configuration refers to
func (s *Service) NetworkName() string {
	return s.name
}

// DefaultChannel returns the name of the default channel
func (s *Service) DefaultChannel() string {
	return s.GetString("fabric." + s.prefix + "defaultChannel")
}

// EventQueueSize returns the size of the hub event dispatch buffer
func (s *Service) EventQueueSize() int {
	size := s.GetInt("fabric." + s.prefix + "events.queueSize")
	if size <= 0 {
		size = defaultEventQueueSize
	}
	return size
}

// WaitForEventTimeout returns how long a caller should wait for a commit event
func (s *Service) WaitForEventTimeout() time.Duration {
	timeout := s.GetDuration("fabric." + s.prefix + "events.waitForEventTimeout")
	if timeout <= 0 {
		timeout = defaultWaitForEventTimeout
	}
	return timeout
}

// Peers returns all configured peers, indexed by their function
func (s *Service) Peers() map[driver.PeerFunctionType][]*grpc.ConnectionConfig {
	return s.peerMapping
}

// PickPeer returns a peer configured for the passed function.
// If multiple peers are configured for that function, a random one is picked.
// Peers configured for anything back any function with no dedicated peers.
func (s *Service) PickPeer(funcType driver.PeerFunctionType) *grpc.ConnectionConfig {
	source := s.peerMapping[funcType]
	if len(source) == 0 {
		source = s.peerMapping[driver.PeerForAnything]
	}
	if len(source) == 0 {
		return nil
	}
	return source[rand.Intn(len(source))]
}

func (s *Service) loadPeers() error {
	var connectionConfigs []*grpc.ConnectionConfig
	if err := s.UnmarshalKey("fabric."+s.prefix+"peers", &connectionConfigs); err != nil {
		return errors.WithMessagef(err, "failed unmarshalling peers for [%s]", s.name)
	}
	if len(connectionConfigs) == 0 {
		return errors.Errorf("no peers configured for [%s]", s.name)
	}

	s.peerMapping = map[driver.PeerFunctionType][]*grpc.ConnectionConfig{}
	for _, v := range connectionConfigs {
		if v.ConnectionTimeout == 0 {
			v.ConnectionTimeout = DefaultConnectionTimeout
		}
		v.TLSRootCertFile = s.TranslatePath(v.TLSRootCertFile)

		funcType, ok := funcTypeMap[v.Usage]
		if !ok {
			logger.Warnf("connection usage [%s] not recognized for peer [%s]", v.Usage, v.Address)
			funcType = driver.PeerForAnything
		}
		s.peerMapping[funcType] = append(s.peerMapping[funcType], v)
	}
	return nil
}
