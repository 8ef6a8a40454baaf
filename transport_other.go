// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

//go:build !unix

package vhw

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
