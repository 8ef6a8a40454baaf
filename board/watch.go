// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package board

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-vhw"
	"go.uber.org/zap"
)

// WatchLines requests lines on a gpiochip and raises an interrupt whenever
// one of them changes level.
//
// The irqs maps line offsets to interrupt ids.  The interrupt value is 1 for
// a rising edge and 0 for a falling edge.  The lines are released when the
// Board is stopped.
func (b *Board) WatchLines(chip string, irqs map[int]int) error {
	if len(irqs) == 0 {
		return errors.Wrap(vhw.ErrInvalidArgument, "no lines to watch")
	}
	ids := make(map[int]int, len(irqs))
	offsets := make([]int, 0, len(irqs))
	for o, id := range irqs {
		if id < 0 || id >= vhw.IRQModulus {
			return errors.Wrapf(vhw.ErrInvalidArgument, "irq id %d", id)
		}
		ids[o] = id
		offsets = append(offsets, o)
	}
	sort.Ints(offsets)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return vhw.ErrNotReady
	}
	eh := func(evt gpiocdev.LineEvent) {
		value := 0
		if evt.Type == gpiocdev.LineEventRisingEdge {
			value = 1
		}
		if err := b.Raise(ids[evt.Offset], value); err != nil {
			b.log.Debug("edge not raised",
				zap.String("chip", chip),
				zap.Int("offset", evt.Offset),
				zap.Error(err))
		}
	}
	l, err := gpiocdev.RequestLines(chip, offsets,
		gpiocdev.WithConsumer(b.consumer),
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(eh))
	if err != nil {
		return errors.Wrapf(err, "watch %s", chip)
	}
	b.watches = append(b.watches, l)
	b.log.Info("watching lines", zap.String("chip", chip), zap.Ints("offsets", offsets))
	return nil
}
