// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableUnregisterReleasesHandler(t *testing.T) {
	tbl := NewTable(false)
	h := HandlerFunc(func(id, value int) {})
	for _, id := range []int{1, 2, 3} {
		require.Nil(t, tbl.Register(id, h))
	}
	require.Nil(t, tbl.Unregister(1))
	assert.Equal(t, 2, tbl.Len())

	// the vacated slot no longer references a handler
	backing := tbl.regs[:cap(tbl.regs)]
	assert.Equal(t, registration{}, backing[2])
	assert.Equal(t, 2, tbl.regs[0].id)
	assert.Equal(t, 3, tbl.regs[1].id)

	require.Nil(t, tbl.Unregister(3))
	backing = tbl.regs[:cap(tbl.regs)]
	assert.Equal(t, registration{}, backing[1])
	assert.Equal(t, registration{}, backing[2])
}
