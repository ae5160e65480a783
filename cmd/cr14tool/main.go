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

// cr14tool reads and writes PICC memory blocks through a CR14 reader.
//
//	cr14tool -op poll
//	cr14tool -op read -blocks 7
//	cr14tool -op dump -blocks 0-15
//	cr14tool -op write -blocks 7 -data 06000000
//	cr14tool -op erase -blocks 7,8,9
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	cr14 "github.com/piccworks/go-cr14"
	"github.com/piccworks/go-cr14/picc"
	"github.com/piccworks/go-cr14/transport/chardev"
	"github.com/piccworks/go-cr14/transport/uart"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML config file")
	device := flag.String("device", "", "Reader device node (overrides config)")
	serialPath := flag.String("serial", "", "Serial bridge port instead of a device node")
	op := flag.String("op", "poll", "Operation: poll, read, dump, write, erase")
	blocksArg := flag.String("blocks", "", "Block addresses: 7 or 7,8,9 or 0-15 (dump defaults to 0-15)")
	dataArg := flag.String("data", "", "Write data, 8 hex digits per block, wire order")
	timeout := flag.Duration("timeout", 0, "Per-transaction timeout (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		cr14.SetDebugEnabled(true)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := defaultToolConfig()
	if *configPath != "" {
		loaded, err := loadToolConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		cfg = loaded
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *serialPath != "" {
		cfg.Serial = *serialPath
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if cfg.DebugWire {
		cr14.SetDebugEnabled(true)
	}

	if err := run(cfg, *op, *blocksArg, *dataArg); err != nil {
		log.Fatal().Err(err).Msg("cr14tool")
	}
}

func run(cfg toolConfig, op, blocksArg, dataArg string) error {
	transport, err := openTransport(cfg)
	if err != nil {
		return err
	}

	device, err := cr14.New(transport,
		cr14.WithTimeout(cfg.Timeout),
		cr14.WithMaxAnnouncements(cfg.MaxNoise),
		cr14.WithAnnouncementHandler(func(uid cr14.UID) {
			log.Debug().Stringer("uid", uid).Msg("announcement absorbed")
		}),
	)
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() { _ = device.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("waiting for a chip")
	uid, err := device.PollContext(ctx)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	reportCard(uid)

	switch op {
	case "poll":
		return nil
	case "read":
		return runRead(ctx, device, uid, blocksArg)
	case "dump":
		return runRead(ctx, device, uid, dumpBlocks(blocksArg))
	case "write":
		return runWrite(ctx, device, uid, blocksArg, dataArg)
	case "erase":
		return runErase(ctx, device, uid, blocksArg)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func openTransport(cfg toolConfig) (cr14.Transport, error) {
	if cfg.Serial != "" {
		return uart.NewWithConfig(uart.Config{Path: cfg.Serial, BaudRate: cfg.BaudRate})
	}
	return chardev.Open(cfg.Device)
}

func reportCard(uid cr14.UID) {
	info := picc.Identify(uid)
	event := log.Info().Stringer("uid", uid)
	if info.Manufacturer != "" {
		event = event.Str("manufacturer", info.Manufacturer)
	}
	if info.Model != "" {
		event = event.Str("model", info.Model)
	}
	event.Msg("card present")

	if err := cr14.CheckChipFamily(uid); err != nil {
		log.Warn().Err(err).Msg("chip family check")
	}
}

func runRead(ctx context.Context, device *cr14.Device, uid cr14.UID, blocksArg string) error {
	addrs, err := parseBlocks(blocksArg)
	if err != nil {
		return err
	}

	result, err := device.ReadBlocksContext(ctx, uid, addrs)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	reportWarnings(result)

	for i, block := range result.Blocks {
		label := "?"
		if i < len(addrs) {
			label = strconv.Itoa(int(addrs[i]))
		}
		fmt.Printf("block %s: %s (counter=%d)\n", label, block, block.Uint32())
	}
	return nil
}

func runWrite(ctx context.Context, device *cr14.Device, uid cr14.UID, blocksArg, dataArg string) error {
	addrs, err := parseBlocks(blocksArg)
	if err != nil {
		return err
	}
	data, err := parseData(dataArg, len(addrs))
	if err != nil {
		return err
	}

	result, err := device.WriteBlocksContext(ctx, uid, addrs, data)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	reportWarnings(result)

	log.Info().Int("blocks", len(result.Blocks)).Msg("write complete")
	return nil
}

func runErase(ctx context.Context, device *cr14.Device, uid cr14.UID, blocksArg string) error {
	addrs, err := parseBlocks(blocksArg)
	if err != nil {
		return err
	}

	data := make([]cr14.Block, len(addrs))
	for i := range data {
		data[i] = cr14.Block{0xFF, 0xFF, 0xFF, 0xFF}
	}

	result, err := device.WriteBlocksContext(ctx, uid, addrs, data)
	if err != nil {
		return fmt.Errorf("erase: %w", err)
	}
	reportWarnings(result)

	log.Info().Int("blocks", len(result.Blocks)).Msg("erase complete")
	return nil
}

func reportWarnings(result *cr14.Result) {
	for _, warning := range result.Warnings {
		log.Warn().Err(warning).Msg("transaction warning")
	}
}

// dumpBlocks applies the dump default when no blocks are given: the
// first 16 blocks, a 512-bit PICC's whole user memory.
func dumpBlocks(arg string) string {
	if arg == "" {
		return "0-15"
	}
	return arg
}

// parseBlocks accepts "7", "7,8,9", and "0-15".
func parseBlocks(arg string) ([]byte, error) {
	if arg == "" {
		return nil, fmt.Errorf("no blocks given, use -blocks")
	}

	if start, end, ok := strings.Cut(arg, "-"); ok {
		first, err := parseBlockNumber(start)
		if err != nil {
			return nil, err
		}
		last, err := parseBlockNumber(end)
		if err != nil {
			return nil, err
		}
		if last < first {
			return nil, fmt.Errorf("bad block range %q", arg)
		}
		addrs := make([]byte, 0, int(last)-int(first)+1)
		for b := int(first); b <= int(last); b++ {
			addrs = append(addrs, byte(b))
		}
		return addrs, nil
	}

	parts := strings.Split(arg, ",")
	addrs := make([]byte, 0, len(parts))
	for _, part := range parts {
		b, err := parseBlockNumber(part)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, b)
	}
	return addrs, nil
}

func parseBlockNumber(s string) (byte, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("bad block number %q: %w", s, err)
	}
	return byte(n), nil
}

// parseData decodes 8 hex digits per block, wire (little-endian)
// order, matching what a block dump prints.
func parseData(arg string, count int) ([]cr14.Block, error) {
	clean := strings.NewReplacer(" ", "", ":", "").Replace(arg)
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("bad write data: %w", err)
	}
	if len(raw) != count*4 {
		return nil, fmt.Errorf("write data is %d bytes, need %d (4 per block)", len(raw), count*4)
	}

	blocks := make([]cr14.Block, count)
	for i := range blocks {
		copy(blocks[i][:], raw[i*4:(i+1)*4])
	}
	return blocks, nil
}
