/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"github.com/hyperledger/fabric/common/metrics"
)

var (
	eventsDispatchedOpts = metrics.CounterOpts{
		Namespace:    "eventhub",
		Name:         "events_dispatched",
		Help:         "The number of transaction events dispatched to registrations.",
		LabelNames:   []string{"channel"},
		StatsdFormat: "%{#fqname}.%{channel}",
	}
	streamErrorsOpts = metrics.CounterOpts{
		Namespace:    "eventhub",
		Name:         "stream_errors",
		Help:         "The number of deliver stream errors.",
		LabelNames:   []string{"channel"},
		StatsdFormat: "%{#fqname}.%{channel}",
	}
	blocksReceivedOpts = metrics.CounterOpts{
		Namespace:    "eventhub",
		Name:         "blocks_received",
		Help:         "The number of blocks received over deliver streams.",
		LabelNames:   []string{"channel"},
		StatsdFormat: "%{#fqname}.%{channel}",
	}
)

// Metrics collects the counters the hubs feed
type Metrics struct {
	EventsDispatched metrics.Counter
	StreamErrors     metrics.Counter
	BlocksReceived   metrics.Counter
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		EventsDispatched: p.NewCounter(eventsDispatchedOpts),
		StreamErrors:     p.NewCounter(streamErrorsOpts),
		BlocksReceived:   p.NewCounter(blocksReceivedOpts),
	}
}
