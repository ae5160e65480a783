// go-cr14
// Copyright (c) 2025 The Piccworks Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cr14.
//
// go-cr14 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cr14 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cr14; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/piccworks/go-cr14/transport/chardev"
)

// toolConfig is the resolved tool configuration after overlaying the
// optional config file onto the defaults.
type toolConfig struct {
	Device    string
	Serial    string
	BaudRate  int
	Timeout   time.Duration
	MaxNoise  int
	DebugWire bool
}

// defaultToolConfig returns the built-in defaults.
func defaultToolConfig() toolConfig {
	return toolConfig{
		Device:  chardev.DefaultDevice,
		Timeout: 30 * time.Second,
	}
}

// cr14tool config.toml key mapping.
type fileConfig struct {
	Device     string `toml:"device"`
	Serial     string `toml:"serial"`
	BaudRate   int    `toml:"baud_rate"`
	TimeoutStr string `toml:"timeout"`
	MaxNoise   int    `toml:"max_announcements"`
	DebugWire  bool   `toml:"debug_wire"`
}

// loadToolConfig overlays a TOML config file onto the defaults. Only
// keys present in the file override.
func loadToolConfig(path string) (toolConfig, error) {
	cfg := defaultToolConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return toolConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("serial") {
		cfg.Serial = strings.TrimSpace(raw.Serial)
	}
	if meta.IsDefined("baud_rate") {
		cfg.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("timeout") {
		timeout, err := time.ParseDuration(strings.TrimSpace(raw.TimeoutStr))
		if err != nil {
			return toolConfig{}, fmt.Errorf("load config: bad timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if meta.IsDefined("max_announcements") {
		cfg.MaxNoise = raw.MaxNoise
	}
	if meta.IsDefined("debug_wire") {
		cfg.DebugWire = raw.DebugWire
	}

	return cfg, nil
}
