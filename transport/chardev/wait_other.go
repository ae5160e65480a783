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

//go:build !linux

package chardev

import (
	"os"
	"time"
)

// waitReadable falls back to the runtime deadline support on platforms
// without poll(2). The kernel cr14 driver is Linux-only, so this path
// only matters for device nodes forwarded by other means.
func waitReadable(file *os.File, timeout time.Duration) (bool, error) {
	if err := file.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		// No deadline support; let the read block.
		return true, nil //nolint:nilerr // deliberate fallback
	}
	return true, nil
}
