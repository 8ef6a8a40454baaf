// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// IRQModulus splits an inbound number into its id and value.
	//
	// The id is the number modulo IRQModulus, and the value the quotient.
	IRQModulus = 10000

	// MinDatagramLen is the shortest inbound datagram that is decoded.
	MinDatagramLen = 8

	// GPIOEventKind identifies a GPIO event in an outbound payload.
	GPIOEventKind = 1

	// GPIOEventLen is the length of an encoded GPIO event.
	GPIOEventLen = 12
)

// DecodeIRQ decodes an inbound interrupt datagram into its id and value.
//
// The datagram must be at least MinDatagramLen bytes and start, after any
// leading whitespace, with a non-negative decimal integer.  Anything after
// the integer is ignored.  The id must be in the range [0, maxIRQ).
func DecodeIRQ(b []byte, maxIRQ int) (id, value int, err error) {
	if len(b) < MinDatagramLen {
		return 0, 0, errors.Wrapf(ErrShortDatagram, "length %d", len(b))
	}
	num, err := scanUint(b)
	if err != nil {
		return 0, 0, err
	}
	id = int(num % IRQModulus)
	value = int(num / IRQModulus)
	if id >= maxIRQ {
		return id, value, errors.Wrapf(ErrIRQRange, "id %d", id)
	}
	return id, value, nil
}

// EncodeIRQ encodes an interrupt in the form sent by the board, the value
// and id each printed as four or more zero padded digits.
//
// e.g. id 7 with value 42 encodes as "00420007".
func EncodeIRQ(id, value int) ([]byte, error) {
	if id < 0 || id >= IRQModulus || value < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "id %d value %d", id, value)
	}
	return []byte(fmt.Sprintf("%04d%04d", value, id)), nil
}

// scanUint parses the leading unsigned decimal integer from b.
func scanUint(b []byte) (uint64, error) {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	if i < len(b) && b[i] == '+' {
		i++
	}
	start := i
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	if i == start {
		return 0, errors.Wrapf(ErrPayload, "%q", trimPayload(b))
	}
	num, err := strconv.ParseUint(string(b[start:i]), 10, 63)
	if err != nil {
		return 0, errors.Wrap(ErrPayload, err.Error())
	}
	return num, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// trimPayload limits the payload quoted in errors and logs.
func trimPayload(b []byte) []byte {
	if len(b) > 16 {
		return b[:16]
	}
	return b
}

// GPIOEvent is the outbound event that reports the level of a GPIO pin.
//
// It is encoded as three little-endian 32-bit integers: the kind, the pin
// and the state.
type GPIOEvent struct {
	Pin   int
	State int
}

// EncodeGPIO returns the wire form of a GPIO event.
func EncodeGPIO(pin int, state bool) []byte {
	s := 0
	if state {
		s = 1
	}
	b := make([]byte, GPIOEventLen)
	binary.LittleEndian.PutUint32(b[0:], GPIOEventKind)
	binary.LittleEndian.PutUint32(b[4:], uint32(int32(pin)))
	binary.LittleEndian.PutUint32(b[8:], uint32(int32(s)))
	return b
}

// DecodeGPIO decodes the wire form of a GPIO event.
//
// Only the first GPIOEventLen bytes are decoded, and anything after them is
// ignored.  Returns ErrPayload if b is shorter than GPIOEventLen or is not a
// GPIO event.
func DecodeGPIO(b []byte) (GPIOEvent, error) {
	if len(b) < GPIOEventLen {
		return GPIOEvent{}, errors.Wrapf(ErrPayload, "gpio event length %d", len(b))
	}
	kind := int32(binary.LittleEndian.Uint32(b[0:]))
	if kind != GPIOEventKind {
		return GPIOEvent{}, errors.Wrapf(ErrPayload, "event kind %d", kind)
	}
	return GPIOEvent{
		Pin:   int(int32(binary.LittleEndian.Uint32(b[4:]))),
		State: int(int32(binary.LittleEndian.Uint32(b[8:]))),
	}, nil
}
