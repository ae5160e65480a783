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

// Package picc identifies contactless memory cards from their UID.
//
// The catalog is pure static data for presentation: the second
// presentation byte of a UID carries the ISO 7816-6 manufacturer code,
// and for known manufacturers the third byte carries a model prefix of
// varying bit width. None of this matters to the wire protocol, which
// treats UIDs as opaque.
package picc

import (
	"fmt"
	"strings"

	cr14 "github.com/piccworks/go-cr14"
)

// Manufacturers maps the ISO 7816-6 manufacturer byte to the issuer
// name.
var Manufacturers = map[byte]string{
	0x01: "Motorola",
	0x02: "ST Microelectronics",
	0x03: "Hitachi",
	0x04: "NXP Semiconductors",
	0x05: "Infineon Technologies",
	0x06: "Cylinc",
	0x07: "Texas Instruments Tag-it",
	0x08: "Fujitsu Limited",
	0x09: "Matsushita Electric Industrial",
	0x0A: "NEC",
	0x0B: "Oki Electric",
	0x0C: "Toshiba",
	0x0D: "Mitsubishi Electric",
	0x0E: "Samsung Electronics",
	0x0F: "Hyundai Electronics",
	0x10: "LG Semiconductors",
	0x16: "EM Microelectronic-Marin",
	0x1F: "Melexis",
	0x2B: "Maxim",
	0x33: "AMIC",
	0x44: "GenTag, Inc (USA)",
	0x45: "Invengo Information Technology Co.Ltd",
}

// model is one catalog entry. The prefix width varies: the SRI/SRIX
// generation uses 6-bit codes in the top of the model byte, the ST25TB
// generation uses the whole byte.
type model struct {
	name string
	bits uint
	code byte
}

// models is keyed by manufacturer byte. Only ST Microelectronics
// models are cataloged; every chip the CR14 talks to is one of these.
// Whole-byte codes come first: the ST25TB codes share their top bits
// with SRI generation prefixes, so the wider match must win.
var models = map[byte][]model{
	0x02: {
		{name: "ST25TB512-AC", bits: 8, code: 0x1B},
		{name: "ST25TB04K", bits: 8, code: 0x1F},
		{name: "ST25TB512-AT", bits: 8, code: 0x33},
		{name: "ST25TB02K", bits: 8, code: 0x3F},
		{name: "SRIX4K", bits: 6, code: 0b000011},
		{name: "SRI512", bits: 6, code: 0b000110},
		{name: "SRT512", bits: 6, code: 0b001100},
		{name: "SRI4K", bits: 6, code: 0b000111},
		{name: "SRI2K", bits: 6, code: 0b001111},
	},
}

// Info is the decoded identity of a card.
type Info struct {
	// Manufacturer is the issuer name, empty when the code is not
	// cataloged.
	Manufacturer string
	// Model is the chip model name, empty when not cataloged.
	Model string
	// Serial is the per-chip serial number in presentation order, with
	// any model prefix bits masked off.
	Serial []byte
	// ManufacturerCode is the raw ISO 7816-6 byte.
	ManufacturerCode byte
	// ModelCode is the raw model byte.
	ModelCode byte
}

// SerialString renders the serial as colon-separated hex.
func (i Info) SerialString() string {
	parts := make([]string, len(i.Serial))
	for n, b := range i.Serial {
		parts[n] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// Identify decodes manufacturer, model, and serial number from a UID.
// Unknown codes leave the corresponding name empty; the raw bytes are
// always present.
func Identify(uid cr14.UID) Info {
	p := uid.Reversed()
	info := Info{
		ManufacturerCode: p[1],
		ModelCode:        p[2],
		Manufacturer:     Manufacturers[p[1]],
	}

	for _, m := range models[p[1]] {
		if m.bits < 8 {
			if p[2]>>(8-m.bits) == m.code {
				info.Model = m.name
				// The serial shares the model byte; strip the prefix.
				serial := append([]byte(nil), p[2:]...)
				serial[0] &^= m.code << (8 - m.bits)
				info.Serial = serial
				return info
			}
			continue
		}
		if p[2] == m.code {
			info.Model = m.name
			info.Serial = append([]byte(nil), p[3:]...)
			return info
		}
	}

	info.Serial = append([]byte(nil), p[2:]...)
	return info
}
