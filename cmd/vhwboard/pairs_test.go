// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePairs(t *testing.T) {
	patterns := []struct {
		name string
		in   string
		out  map[int]int
		err  bool
	}{
		{"empty", "", map[int]int{}, false},
		{"blank", "  ", map[int]int{}, false},
		{"one", "2=5", map[int]int{2: 5}, false},
		{"many", "2=5, 3=6,4=0", map[int]int{2: 5, 3: 6, 4: 0}, false},
		{"no value", "2", nil, true},
		{"bad key", "x=1", nil, true},
		{"bad value", "1=x", nil, true},
		{"duplicate", "1=2,1=3", nil, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			m, err := parsePairs(p.in)
			if p.err {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, p.out, m)
		}
		t.Run(p.name, tf)
	}
}
