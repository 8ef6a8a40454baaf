// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

/*
Package vhw is a virtual hardware bus that connects driver code to an
external hardware simulator over UDP multicast.

The simulator raises interrupts by sending datagrams to the group, and
drivers receive them by registering a [Handler] against the interrupt id
with [Bus.RegisterIRQ].  Drivers report state changes, such as the level of
a GPIO pin, to the simulator using [Bus.SendData] or [Bus.SetGPIO].

A [Bus] runs two goroutines once started.  The listener owns the inbound
socket, decodes each datagram and dispatches it to the registered handler.
The dispatcher owns the outbound socket and transmits queued events one at a
time, in the order they were queued.  Senders block until their event has
been transmitted, so payloads are never copied.

# Wire Format

Inbound datagrams are ASCII decimal integers of at least 8 bytes.  The
interrupt id is the number modulo 10000 and the value the quotient, so
"00420007" is interrupt 7 with value 42.  Ids must be less than MaxIRQ
(100 by default).

Outbound GPIO events are three little-endian 32-bit integers: the event kind
(1), the pin number and the state (0 or 1).  Other outbound payloads are
opaque to the bus.

# Example Usage

Create a bus with the default configuration, handle interrupt 5 and drive
GPIO pin 2 high:

	b := vhw.NewBus(vhw.WithLogger(logger))
	b.RegisterIRQFunc(5, func(id, value int) {
		fmt.Printf("irq %d: %d\n", id, value)
	})
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()
	err := b.SetGPIO(2, true)

Handlers are called on the listener goroutine with the registration table
locked.  They must return promptly and must not register or unregister
handlers.

The board subpackage provides the simulator side of the bus.
*/
package vhw
