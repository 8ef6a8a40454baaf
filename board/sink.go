// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package board

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrNoSuchLine indicates a GPIO event for a pin the sink does not have.
var ErrNoSuchLine = errors.New("no such line")

// LineSink applies the GPIO levels reported by the bus.
type LineSink interface {
	SetLine(pin, state int) error
}

// LEDs is an in-memory bank of LEDs.
type LEDs struct {
	mu     sync.Mutex
	levels []int
	notify func(pin, state int)
}

// NewLEDs creates a bank of n LEDs, all initially off.
//
// If notify is not nil it is called with each change of state.
func NewLEDs(n int, notify func(pin, state int)) *LEDs {
	return &LEDs{levels: make([]int, n), notify: notify}
}

// SetLine sets the state of an LED.
func (l *LEDs) SetLine(pin, state int) error {
	if state != 0 {
		state = 1
	}
	l.mu.Lock()
	if pin < 0 || pin >= len(l.levels) {
		l.mu.Unlock()
		return errors.Wrapf(ErrNoSuchLine, "pin %d", pin)
	}
	changed := l.levels[pin] != state
	l.levels[pin] = state
	l.mu.Unlock()
	if changed && l.notify != nil {
		l.notify(pin, state)
	}
	return nil
}

// Level returns the state of an LED.
func (l *LEDs) Level(pin int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pin < 0 || pin >= len(l.levels) {
		return 0, errors.Wrapf(ErrNoSuchLine, "pin %d", pin)
	}
	return l.levels[pin], nil
}

// Levels returns the state of all the LEDs.
func (l *LEDs) Levels() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.levels...)
}
