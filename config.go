// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the UDP port of the multicast group.
	DefaultPort = 14212

	// DefaultGroup is the multicast group shared with the simulator.
	DefaultGroup = "224.0.2.66"

	// DefaultQueueCapacity permits a single outbound event in flight.
	DefaultQueueCapacity = 1

	// DefaultMaxIRQ is the exclusive upper bound of interrupt ids.
	DefaultMaxIRQ = 100

	// DefaultReceiveBufferSize is the largest inbound datagram decoded.
	DefaultReceiveBufferSize = 128
)

// Config contains the network and queue settings of a Bus.
//
// The defaults match those of the simulators the bus interoperates with, so
// they should only be changed in concert with the simulator.
type Config struct {
	// The UDP port the group is bound to.
	Port int `yaml:"port"`

	// The multicast group address.
	Group string `yaml:"group"`

	// The name of the interface to join the group on.
	//
	// If empty then the system default is used.
	Interface string `yaml:"interface"`

	// Enable multicast loopback, so peers on the same host receive the
	// datagrams sent.
	Loopback bool `yaml:"loopback"`

	// The multicast TTL of outbound datagrams.
	TTL int `yaml:"ttl"`

	// The number of outbound events that may be queued or in flight.
	//
	// With a capacity of 1 outbound events are strictly serialised.
	QueueCapacity int `yaml:"queue_capacity"`

	// The exclusive upper bound of interrupt ids.
	MaxIRQ int `yaml:"max_irq"`

	// The size of the buffer inbound datagrams are read into.
	ReceiveBufferSize int `yaml:"receive_buffer_size"`
}

// DefaultConfig returns the default Config.
func DefaultConfig() Config {
	return Config{
		Port:              DefaultPort,
		Group:             DefaultGroup,
		TTL:               1,
		QueueCapacity:     DefaultQueueCapacity,
		MaxIRQ:            DefaultMaxIRQ,
		ReceiveBufferSize: DefaultReceiveBufferSize,
	}
}

// LoadConfig returns the default Config overlaid with the settings from the
// YAML file at path, if it exists, and then from the environment.
//
// The environment variables are VHW_PORT, VHW_GROUP, VHW_INTERFACE,
// VHW_LOOPBACK and VHW_QUEUE_CAPACITY.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, errors.Wrap(err, "parse config file")
			}
		}
	}
	cfg.Port = envInt("VHW_PORT", cfg.Port)
	cfg.QueueCapacity = envInt("VHW_QUEUE_CAPACITY", cfg.QueueCapacity)
	if v := os.Getenv("VHW_GROUP"); v != "" {
		cfg.Group = v
	}
	if v := os.Getenv("VHW_INTERFACE"); v != "" {
		cfg.Interface = v
	}
	if v, err := strconv.ParseBool(os.Getenv("VHW_LOOPBACK")); err == nil {
		cfg.Loopback = v
	}
	return cfg, cfg.Validate()
}

// Validate checks the Config is usable.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port: %d", c.Port)
	}
	if _, err := c.GroupAddr(); err != nil {
		return err
	}
	if c.QueueCapacity < 1 {
		return errors.Errorf("invalid queue capacity: %d", c.QueueCapacity)
	}
	if c.MaxIRQ < 1 || c.MaxIRQ > IRQModulus {
		return errors.Errorf("invalid max irq: %d", c.MaxIRQ)
	}
	if c.ReceiveBufferSize < MinDatagramLen {
		return errors.Errorf("invalid receive buffer size: %d", c.ReceiveBufferSize)
	}
	return nil
}

// GroupAddr returns the UDP address of the multicast group.
func (c Config) GroupAddr() (*net.UDPAddr, error) {
	ip := net.ParseIP(c.Group)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return nil, errors.Errorf("invalid multicast group: %s", c.Group)
	}
	return &net.UDPAddr{IP: ip, Port: c.Port}, nil
}

// String returns the group and port in host:port form.
func (c Config) String() string {
	return net.JoinHostPort(c.Group, fmt.Sprintf("%d", c.Port))
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
