// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// parsePairs parses a list of key=value integer pairs, e.g. "2=5,3=6".
func parsePairs(s string) (map[int]int, error) {
	m := make(map[int]int)
	if strings.TrimSpace(s) == "" {
		return m, nil
	}
	for _, p := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			return nil, errors.Errorf("missing '=' in %q", p)
		}
		key, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrapf(err, "key in %q", p)
		}
		val, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "value in %q", p)
		}
		if _, dup := m[key]; dup {
			return nil, errors.Errorf("duplicate key %d", key)
		}
		m[key] = val
	}
	return m, nil
}
