// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-vhw"
	"github.com/warthog618/go-vhw/board"
)

// TestMulticastLoopback exercises the real multicast transport on the local
// host.  It requires a multicast capable interface, so is only run when
// VHW_MULTICAST_TEST is set.
func TestMulticastLoopback(t *testing.T) {
	if os.Getenv("VHW_MULTICAST_TEST") == "" {
		t.Skip("VHW_MULTICAST_TEST not set")
	}
	cfg := vhw.DefaultConfig()
	cfg.Port = 14299
	cfg.Loopback = true

	bus := vhw.NewBus(vhw.WithConfig(cfg))
	r := &recorder{}
	require.Nil(t, bus.RegisterIRQ(3, r))
	require.Nil(t, bus.Start())
	defer bus.Stop()

	leds := board.NewLEDs(4, nil)
	brd := board.New(leds, board.WithConfig(cfg))
	require.Nil(t, brd.Start())
	defer brd.Stop()

	require.Nil(t, brd.Raise(3, 9))
	assert.Eventually(t, func() bool { return len(r.Events()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []event{{3, 9}}, r.Events())

	require.Nil(t, bus.SetGPIO(1, true))
	assert.Eventually(t, func() bool {
		v, _ := leds.Level(1)
		return v == 1
	}, time.Second, time.Millisecond)
}
