// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Reasons an inbound datagram is dropped.
const (
	dropShort   = "short"
	dropPayload = "payload"
	dropRange   = "range"
)

// Metrics are the counters maintained by a Bus.
type Metrics struct {
	// Inbound datagrams read from the group.
	Received prometheus.Counter

	// Inbound datagrams dropped, by reason.
	Dropped *prometheus.CounterVec

	// Interrupts delivered to a handler.
	Dispatched prometheus.Counter

	// Interrupts with no registered handler.
	Unhandled prometheus.Counter

	// Outbound events handed to the network.
	Sent prometheus.Counter

	// Outbound events that could not be transmitted.
	SendFailures prometheus.Counter

	// Outbound events queued or in flight.
	QueueDepth prometheus.Gauge
}

// NewMetrics creates the bus metrics and registers them with reg.
//
// If reg is nil the metrics are not registered.  Where reg already holds a
// bus metric, such as when several buses share a registry, the existing
// collector is used, so those buses share their counts.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Received: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vhw",
			Name:      "datagrams_received_total",
			Help:      "Inbound datagrams read from the multicast group.",
		})),
		Dropped: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vhw",
			Name:      "datagrams_dropped_total",
			Help:      "Inbound datagrams dropped as protocol errors.",
		}, []string{"reason"})),
		Dispatched: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vhw",
			Name:      "irqs_dispatched_total",
			Help:      "Interrupts delivered to a registered handler.",
		})),
		Unhandled: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vhw",
			Name:      "irqs_unhandled_total",
			Help:      "Interrupts with no registered handler.",
		})),
		Sent: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vhw",
			Name:      "events_sent_total",
			Help:      "Outbound events handed to the network.",
		})),
		SendFailures: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vhw",
			Name:      "event_send_failures_total",
			Help:      "Outbound events that could not be transmitted.",
		})),
		QueueDepth: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vhw",
			Name:      "queue_depth",
			Help:      "Outbound events queued or in flight.",
		})),
	}
}

// register adds c to reg, returning the collector already registered in its
// place if there is one.
//
// Any other registration failure leaves c unregistered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	return c
}
