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

// readuid streams card identities from a reader device node. Opening
// the node read-only puts the driver in poll-repeat mode, so every
// card entering the field is printed until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cr14 "github.com/piccworks/go-cr14"
	"github.com/piccworks/go-cr14/picc"
	"github.com/piccworks/go-cr14/transport/chardev"
)

type config struct {
	devicePath *string
	debug      *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", chardev.DefaultDevice,
			"Reader device node (e.g. /dev/rfid0)"),
		debug: flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		cr14.SetDebugEnabled(true)
	}

	return cfg
}

func main() {
	cfg := parseFlags()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "readuid: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	transport, err := chardev.OpenReadOnly(*cfg.devicePath)
	if err != nil {
		return err
	}

	device, err := cr14.New(transport, cr14.WithTimeout(0))
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() { _ = device.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Exit with control-C")
	for {
		uid, err := device.ReadAnnouncement(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		printCard(uid)
	}
}

func printCard(uid cr14.UID) {
	fmt.Printf("UID: %s\n", uid)
	if err := cr14.CheckChipFamily(uid); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	info := picc.Identify(uid)
	if info.Manufacturer != "" {
		fmt.Printf("Manufacturer: %s\n", info.Manufacturer)
	} else {
		fmt.Printf("Manufacturer: unknown (%d)\n", info.ManufacturerCode)
	}
	if info.Model != "" {
		fmt.Printf("Model: %s\n", info.Model)
	} else {
		fmt.Printf("Model: unknown (%d)\n", info.ModelCode)
	}
	fmt.Printf("Serial number: %s\n", info.SerialString())
}
