// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument indicates a nil handler or an empty payload.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotReady indicates the bus has no outbound socket, either because it
	// has not been started or because it has been stopped.
	ErrNotReady = errors.New("bus not ready")

	// ErrStopped indicates the bus was stopped while the caller was waiting
	// for its event to be transmitted.
	ErrStopped = errors.New("bus stopped")

	// ErrAlreadyStarted is returned when starting a running bus.
	ErrAlreadyStarted = errors.New("bus already started")

	// ErrReentrant is returned when a handler calls back into the table it
	// is being dispatched from.
	//
	// It is only detected when the reentrancy check is enabled.
	ErrReentrant = errors.New("reentrant table access from handler")

	// ErrShortDatagram indicates a datagram shorter than MinDatagramLen.
	ErrShortDatagram = errors.New("datagram too short")

	// ErrPayload indicates a datagram that does not start with a
	// non-negative decimal integer.
	ErrPayload = errors.New("malformed payload")

	// ErrIRQRange indicates a decoded id outside [0, MaxIRQ).
	ErrIRQRange = errors.New("irq id out of range")

	// ErrDeliveryFailed indicates the dispatcher could not transmit an event.
	//
	// It is only returned to producers when delivery errors are enabled.
	ErrDeliveryFailed = errors.New("delivery failed")
)
