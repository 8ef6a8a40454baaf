// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package fake provides an in-memory multicast group for testing users of
// the vhw bus without a network.
//
// A [Hub] stands in for the multicast group.  Each [Host] obtained from the
// hub is a vhw.Transport whose sockets exchange datagrams via the hub, and
// every datagram written is captured for inspection.
package fake

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/go-vhw"
)

// rxDepth is the number of datagrams a socket buffers before dropping.
const rxDepth = 64

// Datagram is a datagram written to the hub.
type Datagram struct {
	// The host that wrote the datagram, or "" if injected.
	Host string

	Payload []byte

	// When the write started and completed.
	Start time.Time
	End   time.Time
}

// Hub is an in-memory multicast group.
type Hub struct {
	mu        sync.Mutex
	cond      *sync.Cond
	listeners map[*Socket]struct{}
	sent      []Datagram

	writeDelay time.Duration
	writeFails int
	writeErr   error
	listenErr  error
	dialErr    error
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	h := &Hub{listeners: make(map[*Socket]struct{})}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Host returns a transport for a host attached to the hub.
//
// Datagrams written by a host are only delivered to the host's own listening
// sockets if loopback is set.
func (h *Hub) Host(name string, loopback bool) *Host {
	return &Host{hub: h, name: name, loopback: loopback}
}

// Inject delivers a datagram to every listening socket, as if written by a
// host outside the hub.
func (h *Hub) Inject(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliver("", payload)
}

// Sent returns the datagrams successfully written by hosts, in order.
func (h *Hub) Sent() []Datagram {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Datagram(nil), h.sent...)
}

// WaitSent waits until at least n datagrams have been written, or the
// timeout expires, and returns the datagrams written.
func (h *Hub) WaitSent(n int, timeout time.Duration) []Datagram {
	t := time.AfterFunc(timeout, func() {
		h.mu.Lock()
		h.cond.Broadcast()
		h.mu.Unlock()
	})
	defer t.Stop()
	deadline := time.Now().Add(timeout)
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.sent) < n && time.Now().Before(deadline) {
		h.cond.Wait()
	}
	return append([]Datagram(nil), h.sent...)
}

// SetWriteDelay makes each write take at least d.
func (h *Hub) SetWriteDelay(d time.Duration) {
	h.mu.Lock()
	h.writeDelay = d
	h.mu.Unlock()
}

// FailWrites makes the next n writes fail with err.
func (h *Hub) FailWrites(n int, err error) {
	h.mu.Lock()
	h.writeFails = n
	h.writeErr = err
	h.mu.Unlock()
}

// FailReads makes the next read on each open listening socket fail with
// err, including reads already blocked.
func (h *Hub) FailReads(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.listeners {
		select {
		case s.fault <- err:
		default:
		}
	}
}

// FailListen makes subsequent Listen calls fail with err.
func (h *Hub) FailListen(err error) {
	h.mu.Lock()
	h.listenErr = err
	h.mu.Unlock()
}

// FailDial makes subsequent Dial calls fail with err.
func (h *Hub) FailDial(err error) {
	h.mu.Lock()
	h.dialErr = err
	h.mu.Unlock()
}

// Listeners returns the number of open listening sockets.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// deliver queues a copy of the payload on each listener that should see it.
//
// Must be called with the lock held.
func (h *Hub) deliver(from string, payload []byte) {
	for s := range h.listeners {
		if s.host.name == from && !s.host.loopback {
			continue
		}
		d := append([]byte(nil), payload...)
		select {
		case s.rx <- d:
		default:
			// full, so dropped like any other datagram
		}
	}
}

func (h *Hub) write(s *Socket, payload []byte) (int, error) {
	h.mu.Lock()
	delay := h.writeDelay
	if h.writeFails > 0 {
		h.writeFails--
		err := h.writeErr
		h.mu.Unlock()
		return 0, err
	}
	h.mu.Unlock()

	start := time.Now()
	if delay > 0 {
		time.Sleep(delay)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, Datagram{
		Host:    s.host.name,
		Payload: append([]byte(nil), payload...),
		Start:   start,
		End:     time.Now(),
	})
	h.deliver(s.host.name, payload)
	h.cond.Broadcast()
	return len(payload), nil
}

// Host is a vhw.Transport attached to a Hub.
type Host struct {
	hub      *Hub
	name     string
	loopback bool
}

// Listen opens a socket that receives the datagrams written to the hub.
func (t *Host) Listen(group *net.UDPAddr) (vhw.Socket, error) {
	t.hub.mu.Lock()
	defer t.hub.mu.Unlock()
	if t.hub.listenErr != nil {
		return nil, t.hub.listenErr
	}
	s := newSocket(t, group)
	s.rx = make(chan []byte, rxDepth)
	s.fault = make(chan error, 1)
	t.hub.listeners[s] = struct{}{}
	return s, nil
}

// Dial opens a socket for writing to the hub.
func (t *Host) Dial(group *net.UDPAddr) (vhw.Socket, error) {
	t.hub.mu.Lock()
	defer t.hub.mu.Unlock()
	if t.hub.dialErr != nil {
		return nil, t.hub.dialErr
	}
	return newSocket(t, group), nil
}

// Socket is a vhw.Socket attached to a Hub.
type Socket struct {
	host   *Host
	addr   *net.UDPAddr
	rx     chan []byte
	fault  chan error
	closed chan struct{}
	once   sync.Once
}

func newSocket(t *Host, group *net.UDPAddr) *Socket {
	return &Socket{
		host:   t,
		addr:   &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: group.Port},
		closed: make(chan struct{}),
	}
}

// ReadFrom blocks until a datagram is delivered or the socket is closed.
func (s *Socket) ReadFrom(b []byte) (int, net.Addr, error) {
	if s.rx == nil {
		return 0, nil, errors.New("socket is not listening")
	}
	select {
	case d := <-s.rx:
		return copy(b, d), s.addr, nil
	case err := <-s.fault:
		return 0, nil, err
	case <-s.closed:
		return 0, nil, net.ErrClosed
	}
}

// WriteTo writes the datagram to the hub.
func (s *Socket) WriteTo(b []byte, addr net.Addr) (int, error) {
	select {
	case <-s.closed:
		return 0, net.ErrClosed
	default:
	}
	return s.host.hub.write(s, b)
}

// Close closes the socket, unblocking any ReadFrom.
func (s *Socket) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.host.hub.mu.Lock()
		delete(s.host.hub.listeners, s)
		s.host.hub.mu.Unlock()
	})
	return nil
}
