// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := newOutboundQueue(3, nil)
	for _, p := range []string{"a", "b", "c"} {
		_, err := q.push([]byte(p))
		require.Nil(t, err)
	}
	assert.Equal(t, 3, q.len())
	for i, p := range []string{"a", "b", "c"} {
		ev, ok := q.pop()
		require.True(t, ok)
		assert.Equal(t, p, string(ev.payload))
		assert.Equal(t, uint64(i+1), ev.seq)
		q.complete(ev, nil)
		assert.Nil(t, <-ev.done)
	}
	assert.Zero(t, q.len())
}

func TestQueueFullUntilComplete(t *testing.T) {
	var depths []int
	q := newOutboundQueue(1, func(n int) { depths = append(depths, n) })
	first, err := q.push([]byte("first"))
	require.Nil(t, err)

	pushed := make(chan *outboundEvent)
	go func() {
		ev, err := q.push([]byte("second"))
		assert.Nil(t, err)
		pushed <- ev
	}()

	ev, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, first, ev)

	// the slot is held while the first event is in flight
	select {
	case <-pushed:
		t.Fatal("push completed while queue full")
	case <-time.After(50 * time.Millisecond):
	}

	q.complete(ev, nil)
	var second *outboundEvent
	select {
	case second = <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push blocked after complete")
	}
	// the first producer was signalled done before the second was admitted
	select {
	case err := <-first.done:
		assert.Nil(t, err)
	default:
		t.Fatal("second event admitted before first done")
	}
	ev, ok = q.pop()
	require.True(t, ok)
	assert.Equal(t, second, ev)
	q.complete(ev, nil)
	assert.Equal(t, []int{1, 0, 1, 0}, depths)
}

func TestQueueClose(t *testing.T) {
	q := newOutboundQueue(2, nil)
	inflight, err := q.push([]byte("inflight"))
	require.Nil(t, err)
	queued, err := q.push([]byte("queued"))
	require.Nil(t, err)
	ev, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, inflight, ev)

	blocked := make(chan error)
	go func() {
		_, err := q.push([]byte("blocked"))
		blocked <- err
	}()

	q.close()
	// queued events are released
	assert.ErrorIs(t, <-queued.done, ErrStopped)
	// blocked pushes are released
	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("push not released by close")
	}
	// in flight events complete as usual
	q.complete(inflight, nil)
	assert.Nil(t, <-inflight.done)

	_, ok = q.pop()
	assert.False(t, ok)
	_, err = q.push([]byte("late"))
	assert.ErrorIs(t, err, ErrStopped)

	// idempotent
	q.close()
}

func TestQueuePopUnblockedByClose(t *testing.T) {
	q := newOutboundQueue(1, nil)
	popped := make(chan bool)
	go func() {
		_, ok := q.pop()
		popped <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.close()
	select {
	case ok := <-popped:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("pop not released by close")
	}
}
