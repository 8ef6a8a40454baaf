// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// NewBusOption defines the interface required to provide an option to NewBus.
type NewBusOption interface {
	applyBusOption(*Bus)
}

// ConfigOption is an option that replaces the Config of a Bus.
type ConfigOption Config

// WithConfig returns an option that sets the network and queue settings of
// the Bus.
func WithConfig(cfg Config) ConfigOption {
	return ConfigOption(cfg)
}

func (o ConfigOption) applyBusOption(b *Bus) {
	b.cfg = Config(o)
}

// QueueCapacityOption sets the capacity of the outbound queue.
type QueueCapacityOption int

// WithQueueCapacity returns an option that sets the number of outbound
// events that may be queued or in flight.
//
// Producers block when the queue is full.
func WithQueueCapacity(capacity int) QueueCapacityOption {
	return QueueCapacityOption(capacity)
}

func (o QueueCapacityOption) applyBusOption(b *Bus) {
	b.cfg.QueueCapacity = int(o)
}

// TransportOption sets the Transport used to open the bus sockets.
type TransportOption struct {
	Transport
}

// WithTransport returns an option that replaces the multicast transport.
//
// This is primarily intended for testing.
func WithTransport(t Transport) TransportOption {
	return TransportOption{t}
}

func (o TransportOption) applyBusOption(b *Bus) {
	b.transport = o.Transport
}

// LoggerOption sets the logger of a Bus.
type LoggerOption struct {
	*zap.Logger
}

// WithLogger returns an option that sets the logger used by the Bus.
//
// By default the Bus does not log.
func WithLogger(l *zap.Logger) LoggerOption {
	return LoggerOption{l}
}

func (o LoggerOption) applyBusOption(b *Bus) {
	if o.Logger != nil {
		b.log = o.Logger
	}
}

// RegistererOption registers the bus metrics.
type RegistererOption struct {
	prometheus.Registerer
}

// WithRegisterer returns an option that registers the bus metrics with reg.
func WithRegisterer(reg prometheus.Registerer) RegistererOption {
	return RegistererOption{reg}
}

func (o RegistererOption) applyBusOption(b *Bus) {
	b.reg = o.Registerer
}

// ReentrancyCheckOption enables detection of handlers calling into the table.
type ReentrancyCheckOption bool

// WithReentrancyCheck returns an option that makes table calls from within a
// handler fail with ErrReentrant rather than deadlock.
func WithReentrancyCheck() ReentrancyCheckOption {
	return ReentrancyCheckOption(true)
}

func (o ReentrancyCheckOption) applyBusOption(b *Bus) {
	b.checkReentry = bool(o)
}

// DeliveryErrorsOption enables the reporting of transmit failures.
type DeliveryErrorsOption bool

// WithDeliveryErrors returns an option that makes SendData return an error
// matching both ErrDeliveryFailed and the transport error if the event could
// not be transmitted.
//
// By default delivery is best effort and transmit failures are only logged.
func WithDeliveryErrors() DeliveryErrorsOption {
	return DeliveryErrorsOption(true)
}

func (o DeliveryErrorsOption) applyBusOption(b *Bus) {
	b.deliveryErrors = bool(o)
}

// SendRetriesOption sets the retry policy for failed transmits.
type SendRetriesOption struct {
	Retries int
	Backoff time.Duration
}

// WithSendRetries returns an option that retries a failed transmit up to
// retries times.
//
// The delay before each retry doubles from backoff, with up to 50% jitter
// added.
func WithSendRetries(retries int, backoff time.Duration) SendRetriesOption {
	return SendRetriesOption{retries, backoff}
}

func (o SendRetriesOption) applyBusOption(b *Bus) {
	b.retries = o.Retries
	b.backoff = o.Backoff
}
