// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package board

import (
	"github.com/warthog618/go-vhw"
	"go.uber.org/zap"
)

// Option defines the interface required to provide an option to New.
type Option interface {
	applyBoardOption(*Board)
}

// ConfigOption defines the bus configuration used by the Board.
type ConfigOption vhw.Config

// WithConfig returns an option that sets the bus configuration.
//
// The Board and the Bus it talks to must agree on the group and port.
func WithConfig(cfg vhw.Config) ConfigOption {
	return ConfigOption(cfg)
}

func (o ConfigOption) applyBoardOption(b *Board) {
	b.cfg = vhw.Config(o)
}

// TransportOption defines the Transport used to reach the group.
type TransportOption struct {
	t vhw.Transport
}

// WithTransport returns an option that replaces the multicast transport.
func WithTransport(t vhw.Transport) TransportOption {
	return TransportOption{t}
}

func (o TransportOption) applyBoardOption(b *Board) {
	b.transport = o.t
}

// LoggerOption defines the logger used by the Board.
type LoggerOption struct {
	l *zap.Logger
}

// WithLogger returns an option that sets the logger.
func WithLogger(l *zap.Logger) LoggerOption {
	return LoggerOption{l}
}

func (o LoggerOption) applyBoardOption(b *Board) {
	if o.l != nil {
		b.log = o.l
	}
}

// ConsumerOption defines the consumer label used when requesting watched
// lines.
type ConsumerOption string

// WithConsumer returns an option that sets the consumer label of watched
// lines.
func WithConsumer(consumer string) ConsumerOption {
	return ConsumerOption(consumer)
}

func (o ConsumerOption) applyBoardOption(b *Board) {
	b.consumer = string(o)
}
