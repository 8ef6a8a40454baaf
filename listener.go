// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// listen receives interrupt datagrams and dispatches them until the socket
// fails or is closed.
//
// A receive error is fatal to the listener.  It is only reported if the bus
// is not stopping, as closing the socket is how Stop cancels the receive.
func (b *Bus) listen(sock Socket, done chan<- struct{}) error {
	defer close(done)
	buf := make([]byte, b.cfg.ReceiveBufferSize)
	for {
		n, from, err := sock.ReadFrom(buf)
		if err != nil || n <= 0 {
			if b.stopping.Load() {
				b.log.Debug("listener stopped")
				return nil
			}
			if err == nil {
				err = errors.Errorf("receive returned %d", n)
			}
			b.log.Error("receive failed, listener exiting", zap.Error(err))
			return errors.Wrap(err, "listener")
		}
		b.metrics.Received.Inc()
		b.log.Debug("datagram received",
			zap.Int("len", n),
			zap.Stringer("from", from))
		b.handleDatagram(buf[:n])
	}
}

// handleDatagram decodes an interrupt datagram and dispatches it.
//
// Protocol errors are logged and the datagram dropped.
func (b *Bus) handleDatagram(d []byte) {
	id, value, err := DecodeIRQ(d, b.cfg.MaxIRQ)
	if err != nil {
		reason := dropPayload
		switch {
		case errors.Is(err, ErrShortDatagram):
			reason = dropShort
		case errors.Is(err, ErrIRQRange):
			reason = dropRange
		}
		b.metrics.Dropped.WithLabelValues(reason).Inc()
		b.log.Warn("datagram dropped",
			zap.String("reason", reason),
			zap.ByteString("payload", trimPayload(d)),
			zap.Error(err))
		return
	}
	if b.table.Dispatch(id, value) {
		b.metrics.Dispatched.Inc()
		return
	}
	b.metrics.Unhandled.Inc()
	b.log.Debug("no handler", zap.Int("id", id), zap.Int("value", value))
}
