// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"sync"

	"github.com/eapache/queue"
)

// outboundEvent is a payload waiting to be transmitted.
//
// The payload is borrowed from the producer, who is blocked on done until
// the dispatcher has finished with it.
type outboundEvent struct {
	seq     uint64
	payload []byte

	// Receives the result of the transmission, exactly once.
	done chan error
}

// outboundQueue is a bounded FIFO of outbound events.
//
// An event occupies a slot from when it is pushed until it is completed, so
// the capacity bounds the events queued plus those in flight.
type outboundQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	q        *queue.Queue
	capacity int

	// Events popped but not yet completed.
	inFlight int

	seq    uint64
	closed bool

	// Called with the number of occupied slots whenever it changes.
	depth func(int)
}

func newOutboundQueue(capacity int, depth func(int)) *outboundQueue {
	if depth == nil {
		depth = func(int) {}
	}
	oq := &outboundQueue{
		q:        queue.New(),
		capacity: capacity,
		depth:    depth,
	}
	oq.notEmpty = sync.NewCond(&oq.mu)
	oq.notFull = sync.NewCond(&oq.mu)
	return oq
}

// push adds a payload to the queue, blocking while the queue is full.
//
// Returns the event to wait on, or ErrStopped if the queue is closed.
func (oq *outboundQueue) push(payload []byte) (*outboundEvent, error) {
	oq.mu.Lock()
	defer oq.mu.Unlock()
	for !oq.closed && oq.q.Length()+oq.inFlight >= oq.capacity {
		oq.notFull.Wait()
	}
	if oq.closed {
		return nil, ErrStopped
	}
	oq.seq++
	ev := &outboundEvent{seq: oq.seq, payload: payload, done: make(chan error, 1)}
	oq.q.Add(ev)
	oq.depth(oq.q.Length() + oq.inFlight)
	oq.notEmpty.Signal()
	return ev, nil
}

// pop removes the oldest event, blocking while the queue is empty.
//
// Returns false once the queue is closed.
func (oq *outboundQueue) pop() (*outboundEvent, bool) {
	oq.mu.Lock()
	defer oq.mu.Unlock()
	for !oq.closed && oq.q.Length() == 0 {
		oq.notEmpty.Wait()
	}
	if oq.closed {
		return nil, false
	}
	ev := oq.q.Remove().(*outboundEvent)
	oq.inFlight++
	return ev, true
}

// complete releases the producer of a popped event and frees its slot.
//
// The producer's done token is posted before the slot is freed, so no later
// event can be admitted, let alone transmitted, before it.
func (oq *outboundQueue) complete(ev *outboundEvent, err error) {
	oq.mu.Lock()
	ev.done <- err
	oq.inFlight--
	oq.depth(oq.q.Length() + oq.inFlight)
	oq.mu.Unlock()
	oq.notFull.Signal()
}

// close wakes all waiters and releases the producers of any events still
// queued with ErrStopped.
//
// Events already popped are completed by the dispatcher as usual.
func (oq *outboundQueue) close() {
	oq.mu.Lock()
	if oq.closed {
		oq.mu.Unlock()
		return
	}
	oq.closed = true
	for oq.q.Length() > 0 {
		ev := oq.q.Remove().(*outboundEvent)
		ev.done <- ErrStopped
	}
	oq.depth(oq.inFlight)
	oq.mu.Unlock()
	oq.notEmpty.Broadcast()
	oq.notFull.Broadcast()
}

// len returns the number of occupied slots.
func (oq *outboundQueue) len() int {
	oq.mu.Lock()
	defer oq.mu.Unlock()
	return oq.q.Length() + oq.inFlight
}
