// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"math/rand/v2"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// dispatch transmits outbound events, one at a time and in order, until the
// queue is closed.
func (b *Bus) dispatch(sock Socket, group *net.UDPAddr) error {
	for {
		ev, ok := b.queue.pop()
		if !ok {
			b.log.Debug("dispatcher stopped")
			return nil
		}
		err := b.transmit(sock, group, ev)
		if err != nil {
			b.metrics.SendFailures.Inc()
			b.log.Error("send failed",
				zap.Uint64("seq", ev.seq),
				zap.Int("len", len(ev.payload)),
				zap.Error(err))
			if b.deliveryErrors {
				err = multierr.Append(ErrDeliveryFailed, err)
			} else {
				err = nil
			}
		} else {
			b.metrics.Sent.Inc()
		}
		b.queue.complete(ev, err)
	}
}

// transmit writes the event to the group, retrying failures as configured.
func (b *Bus) transmit(sock Socket, group *net.UDPAddr, ev *outboundEvent) error {
	delay := b.backoff
	for attempt := 0; ; attempt++ {
		n, err := sock.WriteTo(ev.payload, group)
		if err == nil && n != len(ev.payload) {
			err = errors.Errorf("short write: %d of %d", n, len(ev.payload))
		}
		if err == nil {
			b.log.Debug("event sent", zap.Uint64("seq", ev.seq), zap.Int("len", n))
			return nil
		}
		if attempt >= b.retries || b.stopping.Load() {
			return err
		}
		b.log.Warn("send failed, retrying",
			zap.Uint64("seq", ev.seq),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(jitter(delay))
		delay *= 2
	}
}

// jitter adds up to 50% to d.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int64N(int64(d)/2+1))
}
