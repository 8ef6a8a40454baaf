// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package vhw_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-vhw"
)

func TestDefaultConfig(t *testing.T) {
	cfg := vhw.DefaultConfig()
	assert.Equal(t, 14212, cfg.Port)
	assert.Equal(t, "224.0.2.66", cfg.Group)
	assert.Equal(t, 1, cfg.QueueCapacity)
	assert.Equal(t, 100, cfg.MaxIRQ)
	assert.Equal(t, 128, cfg.ReceiveBufferSize)
	assert.False(t, cfg.Loopback)
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, "224.0.2.66:14212", cfg.String())

	addr, err := cfg.GroupAddr()
	require.Nil(t, err)
	assert.Equal(t, "224.0.2.66:14212", addr.String())
}

func TestLoadConfig(t *testing.T) {
	// missing file is not an error
	cfg, err := vhw.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Nil(t, err)
	assert.Equal(t, vhw.DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "vhw.yaml")
	err = os.WriteFile(path, []byte("port: 15000\ngroup: 239.1.2.3\nloopback: true\nqueue_capacity: 8\n"), 0644)
	require.Nil(t, err)
	cfg, err = vhw.LoadConfig(path)
	require.Nil(t, err)
	assert.Equal(t, 15000, cfg.Port)
	assert.Equal(t, "239.1.2.3", cfg.Group)
	assert.True(t, cfg.Loopback)
	assert.Equal(t, 8, cfg.QueueCapacity)
	// unset fields keep their defaults
	assert.Equal(t, vhw.DefaultMaxIRQ, cfg.MaxIRQ)

	// environment overrides file
	t.Setenv("VHW_PORT", "16000")
	t.Setenv("VHW_GROUP", "239.9.9.9")
	t.Setenv("VHW_LOOPBACK", "false")
	t.Setenv("VHW_QUEUE_CAPACITY", "2")
	cfg, err = vhw.LoadConfig(path)
	require.Nil(t, err)
	assert.Equal(t, 16000, cfg.Port)
	assert.Equal(t, "239.9.9.9", cfg.Group)
	assert.False(t, cfg.Loopback)
	assert.Equal(t, 2, cfg.QueueCapacity)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vhw.yaml")
	require.Nil(t, os.WriteFile(path, []byte("port: [nope\n"), 0644))
	_, err := vhw.LoadConfig(path)
	assert.NotNil(t, err)

	require.Nil(t, os.WriteFile(path, []byte("group: 192.168.1.1\n"), 0644))
	_, err = vhw.LoadConfig(path)
	assert.NotNil(t, err)
}

func TestConfigValidate(t *testing.T) {
	patterns := []struct {
		name string
		mod  func(*vhw.Config)
	}{
		{"port", func(c *vhw.Config) { c.Port = 0 }},
		{"port high", func(c *vhw.Config) { c.Port = 70000 }},
		{"group", func(c *vhw.Config) { c.Group = "not an address" }},
		{"group unicast", func(c *vhw.Config) { c.Group = "10.1.1.1" }},
		{"group ipv6", func(c *vhw.Config) { c.Group = "ff02::1" }},
		{"queue", func(c *vhw.Config) { c.QueueCapacity = 0 }},
		{"max irq", func(c *vhw.Config) { c.MaxIRQ = 0 }},
		{"max irq high", func(c *vhw.Config) { c.MaxIRQ = vhw.IRQModulus + 1 }},
		{"buffer", func(c *vhw.Config) { c.ReceiveBufferSize = 4 }},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			cfg := vhw.DefaultConfig()
			p.mod(&cfg)
			assert.NotNil(t, cfg.Validate())
		}
		t.Run(p.name, tf)
	}
}
