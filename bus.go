// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bus connects driver code to a hardware simulator via a multicast group.
//
// Inbound datagrams are decoded into interrupts and dispatched to the
// handlers registered for them.  Outbound events are queued and transmitted
// by a dedicated goroutine, with the sender blocked until its event has been
// transmitted.
//
// Registrations are independent of the Bus lifecycle, so handlers may be
// registered before Start and remain registered after Stop.
type Bus struct {
	cfg       Config
	transport Transport
	log       *zap.Logger
	reg       prometheus.Registerer
	metrics   *Metrics
	table     *Table

	checkReentry   bool
	deliveryErrors bool
	retries        int
	backoff        time.Duration

	// Lifecycle, guarded by mu.
	mu       sync.Mutex
	started  bool
	inbound  Socket
	outbound Socket
	queue    *outboundQueue
	group    *errgroup.Group

	// Set while stopping, so socket errors caused by Stop are not reported.
	stopping atomic.Bool

	// Closed when the listener exits.
	done chan struct{}

	// Non-nil while the bus can accept outbound events.
	ready atomic.Pointer[outboundQueue]
}

// NewBus creates an idle Bus based on the provided options.
//
// The available options are [WithConfig], [WithQueueCapacity],
// [WithTransport], [WithLogger], [WithRegisterer], [WithReentrancyCheck],
// [WithDeliveryErrors] and [WithSendRetries].
//
// The Bus uses the [DefaultConfig] unless a [WithConfig] is provided.
func NewBus(options ...NewBusOption) *Bus {
	b := &Bus{
		cfg: DefaultConfig(),
		log: zap.NewNop(),
	}
	for _, o := range options {
		o.applyBusOption(b)
	}
	b.metrics = NewMetrics(b.reg)
	b.table = NewTable(b.checkReentry)
	b.done = make(chan struct{})
	close(b.done)
	return b
}

// Config returns the configuration of the Bus.
func (b *Bus) Config() Config {
	return b.cfg
}

// Metrics returns the metrics maintained by the Bus.
func (b *Bus) Metrics() *Metrics {
	return b.metrics
}

// Start opens the bus sockets and starts the listener and dispatcher.
//
// If any step fails then everything created so far is torn down and the
// error returned.
func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	group, err := b.cfg.GroupAddr()
	if err != nil {
		return err
	}
	t := b.transport
	if t == nil {
		mt, err := NewMulticastTransport(b.cfg)
		if err != nil {
			return err
		}
		t = mt
	}
	inbound, err := t.Listen(group)
	if err != nil {
		b.log.Error("listen failed", zap.Stringer("group", group), zap.Error(err))
		return errors.Wrap(err, "listen")
	}
	outbound, err := t.Dial(group)
	if err != nil {
		inbound.Close()
		b.log.Error("dial failed", zap.Stringer("group", group), zap.Error(err))
		return errors.Wrap(err, "dial")
	}
	b.inbound = inbound
	b.outbound = outbound
	b.queue = newOutboundQueue(b.cfg.QueueCapacity, func(n int) {
		b.metrics.QueueDepth.Set(float64(n))
	})
	b.stopping.Store(false)
	done := make(chan struct{})
	b.done = done
	b.group = &errgroup.Group{}
	b.group.Go(func() error { return b.listen(inbound, done) })
	b.group.Go(func() error { return b.dispatch(outbound, group) })
	b.ready.Store(b.queue)
	b.started = true
	b.log.Info("bus started",
		zap.Stringer("group", group),
		zap.Int("queue_capacity", b.cfg.QueueCapacity))
	return nil
}

// Stop shuts down the listener and dispatcher and closes the bus sockets.
//
// Senders still waiting for their events to be transmitted are released with
// ErrStopped.  Stop returns any error that terminated the listener before
// Stop was called, along with any errors closing the sockets.
//
// Stopping an idle Bus is a no-op.
func (b *Bus) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.ready.Store(nil)
	b.stopping.Store(true)
	// closing the inbound socket is what unblocks the listener's receive.
	err := b.inbound.Close()
	b.queue.close()
	err = multierr.Append(b.group.Wait(), err)
	err = multierr.Append(err, b.outbound.Close())
	b.inbound = nil
	b.outbound = nil
	b.started = false
	b.log.Info("bus stopped", zap.Error(err))
	return err
}

// Done returns a channel that is closed when the listener exits, either
// because the bus was stopped or because of a receive failure.
//
// Once the listener has exited no further interrupts are dispatched until
// the bus is restarted.
func (b *Bus) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// RegisterIRQ registers a handler for the interrupt id.
//
// The id must be in the range [0, MaxIRQ).  Registering an id that already
// has a handler is permitted, but the new handler is only called once all
// earlier registrations for the id have been removed.
func (b *Bus) RegisterIRQ(id int, h Handler) error {
	if id < 0 || id >= b.cfg.MaxIRQ {
		return errors.Wrapf(ErrInvalidArgument, "irq id %d", id)
	}
	if err := b.table.Register(id, h); err != nil {
		return err
	}
	b.log.Debug("irq registered", zap.Int("id", id))
	return nil
}

// RegisterIRQFunc registers a function as the handler for the interrupt id.
func (b *Bus) RegisterIRQFunc(id int, f func(id, value int)) error {
	if f == nil {
		return ErrInvalidArgument
	}
	return b.RegisterIRQ(id, HandlerFunc(f))
}

// UnregisterIRQ removes the earliest registered handler for the interrupt id.
//
// Unregistering an id with no handler is a no-op.
func (b *Bus) UnregisterIRQ(id int) error {
	if err := b.table.Unregister(id); err != nil {
		return err
	}
	b.log.Debug("irq unregistered", zap.Int("id", id))
	return nil
}

// Dispatch delivers an interrupt to its handler as if it had been received
// from the group.
//
// Returns true if a handler was called.
func (b *Bus) Dispatch(id, value int) bool {
	return b.table.Dispatch(id, value)
}

// Table returns the registration table of the Bus.
func (b *Bus) Table() *Table {
	return b.table
}

// SendData transmits the payload to the group.
//
// SendData blocks until the payload has been handed to the network, so the
// caller must not modify the payload until it returns.
// Delivery is best effort, and transmit failures are not returned unless the
// Bus was created with [WithDeliveryErrors].
func (b *Bus) SendData(payload []byte) error {
	if len(payload) == 0 {
		return ErrInvalidArgument
	}
	q := b.ready.Load()
	if q == nil {
		return ErrNotReady
	}
	ev, err := q.push(payload)
	if err != nil {
		return err
	}
	return <-ev.done
}

// SetGPIO reports the state of a GPIO pin to the simulator.
func (b *Bus) SetGPIO(pin int, state bool) error {
	return b.SendData(EncodeGPIO(pin, state))
}
