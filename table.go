// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Handler receives the interrupts dispatched for the ids it is registered
// against.
//
// OnEvent is called on the listener goroutine with the table lock held, so it
// must return promptly and must not call back into the table, i.e. it must
// not register, unregister or dispatch.
type Handler interface {
	OnEvent(id, value int)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(id, value int)

// OnEvent calls f(id, value).
func (f HandlerFunc) OnEvent(id, value int) {
	f(id, value)
}

type registration struct {
	id      int
	handler Handler
}

// Table maps interrupt ids to handlers.
//
// Multiple registrations for the same id are permitted.  Both Dispatch and
// Unregister act on the earliest registration for an id, so a later
// registration only becomes active once the earlier ones are removed.
//
// The zero value is an empty table ready for use.
type Table struct {
	mu   sync.Mutex
	regs []registration

	// The goroutine currently dispatching, when checkReentry is set.
	checkReentry bool
	dispatcher   atomic.Uint64
}

// NewTable creates an empty Table.
//
// If checkReentry is set then calls into the table from within a handler
// return ErrReentrant rather than deadlocking.  The check costs a stack
// capture per call so it is intended for testing and debugging.
func NewTable(checkReentry bool) *Table {
	return &Table{checkReentry: checkReentry}
}

// Register adds a handler for the given id.
func (t *Table) Register(id int, h Handler) error {
	if h == nil {
		return ErrInvalidArgument
	}
	if t.reentered() {
		return ErrReentrant
	}
	t.mu.Lock()
	t.regs = append(t.regs, registration{id: id, handler: h})
	t.mu.Unlock()
	return nil
}

// Unregister removes the earliest registration for the given id.
//
// Unregistering an id that has no registration is a no-op.
func (t *Table) Unregister(id int) error {
	if t.reentered() {
		return ErrReentrant
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, r := range t.regs {
		if r.id == id {
			last := len(t.regs) - 1
			copy(t.regs[i:], t.regs[i+1:])
			t.regs[last] = registration{}
			t.regs = t.regs[:last]
			break
		}
	}
	return nil
}

// Dispatch calls the handler of the earliest registration for id.
//
// Returns true if a handler was called.
func (t *Table) Dispatch(id, value int) bool {
	if t.reentered() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.regs {
		if r.id == id {
			if t.checkReentry {
				t.dispatcher.Store(goid())
				defer t.dispatcher.Store(0)
			}
			r.handler.OnEvent(id, value)
			return true
		}
	}
	return false
}

// Registered returns true if there is at least one handler for id.
func (t *Table) Registered(id int) bool {
	if t.reentered() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.regs {
		if r.id == id {
			return true
		}
	}
	return false
}

// Len returns the number of registrations in the table.
func (t *Table) Len() int {
	if t.reentered() {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.regs)
}

// reentered returns true if the caller is running inside a handler being
// dispatched from this table.
func (t *Table) reentered() bool {
	if !t.checkReentry {
		return false
	}
	d := t.dispatcher.Load()
	return d != 0 && d == goid()
}

// goid returns the id of the calling goroutine.
func goid() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
