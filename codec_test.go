// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-vhw"
)

func TestDecodeIRQInverse(t *testing.T) {
	values := []int{0, 1, 42, 9999, 10000, 123456, 1 << 40}
	for id := 0; id < vhw.IRQModulus; id += 37 {
		for _, v := range values {
			num := v*vhw.IRQModulus + id
			d := []byte(fmt.Sprintf("%08d", num))
			xid, xv, err := vhw.DecodeIRQ(d, vhw.IRQModulus)
			require.Nil(t, err, "num %d", num)
			assert.Equal(t, id, xid)
			assert.Equal(t, v, xv)
		}
	}
	// and the extremes
	for _, id := range []int{0, 9999} {
		d, err := vhw.EncodeIRQ(id, 7)
		require.Nil(t, err)
		xid, xv, err := vhw.DecodeIRQ(d, vhw.IRQModulus)
		require.Nil(t, err)
		assert.Equal(t, id, xid)
		assert.Equal(t, 7, xv)
	}
}

func TestDecodeIRQ(t *testing.T) {
	patterns := []struct {
		name  string
		d     string
		id    int
		value int
		err   error
	}{
		{"board", "00420007", 7, 42, nil},
		{"zero", "00000000", 0, 0, nil},
		{"max id", "00010099", 99, 1, nil},
		{"trailing", "00010005\x00\x00junk", 5, 1, nil},
		{"leading space", "  \t10005", 5, 1, nil},
		{"plus", "+0010005", 5, 1, nil},
		{"short", "0010005", 0, 0, vhw.ErrShortDatagram},
		{"empty", "", 0, 0, vhw.ErrShortDatagram},
		{"text", "interrupt", 0, 0, vhw.ErrPayload},
		{"negative", "-0010005", 0, 0, vhw.ErrPayload},
		{"overflow", "99999999999999999999", 0, 0, vhw.ErrPayload},
		{"binary", "\x01\x00\x00\x00\x02\x00\x00\x00\x01\x00\x00\x00", 0, 0, vhw.ErrPayload},
		{"range", "00010100", 100, 1, vhw.ErrIRQRange},
		{"range max", "00009999", 9999, 0, vhw.ErrIRQRange},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			id, value, err := vhw.DecodeIRQ([]byte(p.d), vhw.DefaultMaxIRQ)
			if p.err != nil {
				assert.ErrorIs(t, err, p.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, p.id, id)
			assert.Equal(t, p.value, value)
		}
		t.Run(p.name, tf)
	}
}

func TestEncodeIRQ(t *testing.T) {
	d, err := vhw.EncodeIRQ(7, 42)
	assert.Nil(t, err)
	assert.Equal(t, "00420007", string(d))

	d, err = vhw.EncodeIRQ(5, 12345)
	assert.Nil(t, err)
	assert.Equal(t, "123450005", string(d))

	_, err = vhw.EncodeIRQ(-1, 0)
	assert.ErrorIs(t, err, vhw.ErrInvalidArgument)
	_, err = vhw.EncodeIRQ(vhw.IRQModulus, 0)
	assert.ErrorIs(t, err, vhw.ErrInvalidArgument)
	_, err = vhw.EncodeIRQ(1, -1)
	assert.ErrorIs(t, err, vhw.ErrInvalidArgument)
}

func TestEncodeGPIO(t *testing.T) {
	d := vhw.EncodeGPIO(2, true)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0}, d)

	d = vhw.EncodeGPIO(260, false)
	assert.Equal(t, []byte{1, 0, 0, 0, 4, 1, 0, 0, 0, 0, 0, 0}, d)
}

func TestDecodeGPIO(t *testing.T) {
	ev, err := vhw.DecodeGPIO(vhw.EncodeGPIO(2, true))
	assert.Nil(t, err)
	assert.Equal(t, vhw.GPIOEvent{Pin: 2, State: 1}, ev)

	ev, err = vhw.DecodeGPIO(vhw.EncodeGPIO(3, false))
	assert.Nil(t, err)
	assert.Equal(t, vhw.GPIOEvent{Pin: 3, State: 0}, ev)

	// short
	_, err = vhw.DecodeGPIO([]byte("00420007"))
	assert.ErrorIs(t, err, vhw.ErrPayload)
	_, err = vhw.DecodeGPIO(vhw.EncodeGPIO(1, true)[:11])
	assert.ErrorIs(t, err, vhw.ErrPayload)

	// trailing bytes ignored
	long := append(vhw.EncodeGPIO(4, true), 0xde, 0xad, 0xbe, 0xef)
	ev, err = vhw.DecodeGPIO(long)
	assert.Nil(t, err)
	assert.Equal(t, vhw.GPIOEvent{Pin: 4, State: 1}, ev)

	// wrong kind
	_, err = vhw.DecodeGPIO([]byte{2, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0})
	assert.ErrorIs(t, err, vhw.ErrPayload)
}
