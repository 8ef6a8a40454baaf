// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
)

// Socket is a datagram endpoint.
//
// A *net.UDPConn satisfies Socket.
type Socket interface {
	ReadFrom(b []byte) (int, net.Addr, error)
	WriteTo(b []byte, addr net.Addr) (int, error)
	Close() error
}

// Transport opens the sockets used to reach the multicast group.
type Transport interface {
	// Listen opens a socket bound to the group port that has joined the
	// group, for receiving.
	Listen(group *net.UDPAddr) (Socket, error)

	// Dial opens a socket for sending to the group.
	Dial(group *net.UDPAddr) (Socket, error)
}

// MulticastTransport is the Transport over IPv4 UDP multicast.
type MulticastTransport struct {
	// The interface to join the group on and send from.
	//
	// If nil then the system default is used.
	Interface *net.Interface

	// Enable loopback of sent datagrams to sockets on the same host.
	Loopback bool

	// The TTL of sent datagrams.  If zero then the system default is used.
	TTL int
}

// NewMulticastTransport creates the MulticastTransport described by cfg.
func NewMulticastTransport(cfg Config) (*MulticastTransport, error) {
	t := &MulticastTransport{Loopback: cfg.Loopback, TTL: cfg.TTL}
	if cfg.Interface != "" {
		ifi, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, errors.Wrapf(err, "interface %s", cfg.Interface)
		}
		t.Interface = ifi
	}
	return t, nil
}

// Listen binds to the group port on the wildcard address, sets the loopback
// mode and joins the group.
func (t *MulticastTransport) Listen(group *net.UDPAddr) (Socket, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", group.Port))
	if err != nil {
		return nil, errors.Wrap(err, "bind")
	}
	p := ipv4.NewPacketConn(pc)
	if err := p.SetMulticastLoopback(t.Loopback); err != nil {
		pc.Close()
		return nil, errors.Wrap(err, "set multicast loopback")
	}
	if err := p.JoinGroup(t.Interface, &net.UDPAddr{IP: group.IP}); err != nil {
		pc.Close()
		return nil, errors.Wrapf(err, "join group %s", group.IP)
	}
	return pc.(*net.UDPConn), nil
}

// Dial opens an unbound socket configured to send to the group.
func (t *MulticastTransport) Dial(group *net.UDPAddr) (Socket, error) {
	c, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	p := ipv4.NewPacketConn(c)
	if err := p.SetMulticastLoopback(t.Loopback); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "set multicast loopback")
	}
	if t.TTL > 0 {
		if err := p.SetMulticastTTL(t.TTL); err != nil {
			c.Close()
			return nil, errors.Wrap(err, "set multicast ttl")
		}
	}
	if t.Interface != nil {
		if err := p.SetMulticastInterface(t.Interface); err != nil {
			c.Close()
			return nil, errors.Wrapf(err, "set multicast interface %s", t.Interface.Name)
		}
	}
	return c, nil
}
