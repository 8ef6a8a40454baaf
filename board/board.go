// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package board

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-vhw"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Board is the simulator side of the bus.
//
// It applies the GPIO events sent by driver code to a LineSink, and raises
// interrupts back to the driver, either directly or in response to edges on
// watched lines.
type Board struct {
	cfg       vhw.Config
	transport vhw.Transport
	log       *zap.Logger
	sink      LineSink
	consumer  string

	mu       sync.Mutex
	started  bool
	inbound  vhw.Socket
	outbound vhw.Socket
	group    *net.UDPAddr
	eg       *errgroup.Group
	watches  []*gpiocdev.Lines

	// Serializes writes to the outbound socket.
	wmu sync.Mutex

	stopping atomic.Bool
}

// New creates an idle Board that applies GPIO events to sink.
//
// The available options are [WithConfig], [WithTransport], [WithLogger] and
// [WithConsumer].
func New(sink LineSink, options ...Option) *Board {
	b := &Board{
		cfg:      vhw.DefaultConfig(),
		log:      zap.NewNop(),
		sink:     sink,
		consumer: "vhwboard",
	}
	for _, o := range options {
		o.applyBoardOption(b)
	}
	return b
}

// Start joins the group and starts applying GPIO events to the sink.
func (b *Board) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return vhw.ErrAlreadyStarted
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
		mt, err := vhw.NewMulticastTransport(b.cfg)
		if err != nil {
			return err
		}
		t = mt
	}
	inbound, err := t.Listen(group)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	outbound, err := t.Dial(group)
	if err != nil {
		inbound.Close()
		return errors.Wrap(err, "dial")
	}
	b.inbound = inbound
	b.outbound = outbound
	b.group = group
	b.stopping.Store(false)
	b.eg = &errgroup.Group{}
	b.eg.Go(func() error { return b.receive(inbound) })
	b.started = true
	b.log.Info("board started", zap.Stringer("group", group))
	return nil
}

// Stop releases any watched lines, stops receiving and closes the sockets.
func (b *Board) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.stopping.Store(true)
	var err error
	for _, l := range b.watches {
		err = multierr.Append(err, l.Close())
	}
	b.watches = nil
	err = multierr.Append(err, b.inbound.Close())
	err = multierr.Append(err, b.eg.Wait())
	b.wmu.Lock()
	err = multierr.Append(err, b.outbound.Close())
	b.outbound = nil
	b.wmu.Unlock()
	b.inbound = nil
	b.started = false
	b.log.Info("board stopped", zap.Error(err))
	return err
}

// Raise sends an interrupt to the driver.
func (b *Board) Raise(id, value int) error {
	payload, err := vhw.EncodeIRQ(id, value)
	if err != nil {
		return err
	}
	b.wmu.Lock()
	defer b.wmu.Unlock()
	if b.outbound == nil {
		return vhw.ErrNotReady
	}
	if _, err := b.outbound.WriteTo(payload, b.group); err != nil {
		b.log.Warn("raise failed", zap.Int("id", id), zap.Int("value", value), zap.Error(err))
		return errors.Wrap(err, "raise")
	}
	b.log.Debug("irq raised", zap.Int("id", id), zap.Int("value", value))
	return nil
}

// receive applies GPIO events to the sink until the inbound socket is
// closed.
//
// Datagrams that are not GPIO events, such as interrupts raised by this or
// other boards, are ignored.
func (b *Board) receive(sock vhw.Socket) error {
	buf := make([]byte, b.cfg.ReceiveBufferSize)
	for {
		n, _, err := sock.ReadFrom(buf)
		if err != nil || n <= 0 {
			if b.stopping.Load() {
				return nil
			}
			if err == nil {
				err = errors.New("empty receive")
			}
			b.log.Error("receive failed", zap.Error(err))
			return errors.Wrap(err, "receive")
		}
		ev, err := vhw.DecodeGPIO(buf[:n])
		if err != nil {
			continue
		}
		if err := b.sink.SetLine(ev.Pin, ev.State); err != nil {
			b.log.Warn("gpio event not applied",
				zap.Int("pin", ev.Pin),
				zap.Int("state", ev.State),
				zap.Error(err))
			continue
		}
		b.log.Debug("gpio event", zap.Int("pin", ev.Pin), zap.Int("state", ev.State))
	}
}
