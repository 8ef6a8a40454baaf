// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

/*
Package board provides the simulator side of the vhw bus.

A [Board] applies the GPIO events sent by driver code to a [LineSink] and
raises interrupts back to the driver.  The sink may be a bank of in-memory
[LEDs] or a [SimChip], which exposes the lines as a real gpiochip via the
gpio-sim kernel module so that they can be inspected with standard GPIO
tools.

Interrupts can be raised directly with [Board.Raise], or generated from
edges on gpiochip lines with [Board.WatchLines]:

	leds := board.NewLEDs(8, nil)
	b := board.New(leds, board.WithLogger(logger))
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()
	err := b.WatchLines("gpiochip0", map[int]int{4: 7})

SimChip requires root permissions and a kernel with gpio-sim (5.19 or
later).
*/
package board
