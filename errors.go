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

package cr14

import (
	"errors"
	"fmt"
)

// Validation errors. These are produced by the request builders before
// anything is written to the device.
var (
	// ErrInvalidPayloadLength indicates write data that is not exactly
	// one block (4 bytes) per addressed block.
	ErrInvalidPayloadLength = errors.New("invalid payload length")
	// ErrNoAddresses indicates a multi-block request with an empty
	// address list.
	ErrNoAddresses = errors.New("no block addresses given")
	// ErrTooManyAddresses indicates a multi-block request with more than
	// 255 addresses.
	ErrTooManyAddresses = errors.New("too many block addresses")
	// ErrDuplicateAddress indicates a multi-block request addressing the
	// same block twice. The wire format cannot express the duplicate, so
	// it is rejected here.
	ErrDuplicateAddress = errors.New("duplicate block address")
	// ErrArityMismatch indicates a multi-block write whose data count
	// does not match its address count.
	ErrArityMismatch = errors.New("data count does not match address count")
	// ErrInvalidParameter indicates an invalid argument to a device
	// operation.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Protocol errors. After any of these the byte stream can no longer be
// assumed to sit on a frame boundary; the device is flagged
// desynchronized and must be resynchronized by the caller.
var (
	// ErrUnexpectedTag indicates a frame tag that is neither an
	// announcement nor the reply to the outstanding request.
	ErrUnexpectedTag = errors.New("unexpected frame tag")
	// ErrTruncatedFrame indicates the stream ended inside a frame.
	ErrTruncatedFrame = errors.New("truncated frame")
	// ErrTimeout indicates the device did not produce the expected bytes
	// within the transaction deadline.
	ErrTimeout = errors.New("operation timeout")
	// ErrDesynchronized indicates a previous fault left the stream
	// without a known frame boundary. Call Resync before reusing the
	// device.
	ErrDesynchronized = errors.New("stream desynchronized")
	// ErrAnnouncementFlood indicates the announcement budget for a single
	// transaction was exhausted before the reply arrived.
	ErrAnnouncementFlood = errors.New("announcement budget exhausted")
)

// Warnings. These never fail a transaction; they are attached to the
// Result of a completed transaction.
var (
	// ErrCountMismatch indicates a multi-block reply declaring a
	// different block count than the request asked for. The blocks
	// actually received are still returned.
	ErrCountMismatch = errors.New("reply block count mismatch")
	// ErrWriteVerification indicates the data echoed by a write reply
	// differs from the data sent. The write is not retried.
	ErrWriteVerification = errors.New("write verification failed")
	// ErrChipFamily indicates a UID whose most significant presentation
	// byte is not the expected chip family tag.
	ErrChipFamily = errors.New("unexpected chip family byte")
)

// Transport errors
var (
	// ErrTransportRead indicates a read from the underlying device
	// failed.
	ErrTransportRead = errors.New("transport read failed")
	// ErrTransportWrite indicates a write to the underlying device
	// failed.
	ErrTransportWrite = errors.New("transport write failed")
	// ErrTransportClosed indicates the transport is closed.
	ErrTransportClosed = errors.New("transport closed")
)

// ErrorType classifies transport errors for callers that implement
// their own retry policy. The engine itself never retries.
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that will not resolve on its
	// own, such as a closed device node.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates an error that may resolve if the
	// operation is reissued, such as a timeout with no card in field.
	ErrorTypeTransient
)

// TransportError wraps a failure in the underlying byte-stream device
// with the operation and port it occurred on.
type TransportError struct {
	Err  error
	Op   string
	Port string
	Type ErrorType
}

// NewTransportError creates a TransportError.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err, Type: errType}
}

// NewTimeoutError creates a TransportError wrapping ErrTimeout.
func NewTimeoutError(op, port string) *TransportError {
	return &TransportError{Op: op, Port: port, Err: ErrTimeout, Type: ErrorTypeTransient}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient transport error that a
// caller may reasonably reissue.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypeTransient
	}
	return errors.Is(err, ErrTimeout)
}

// IsWarning reports whether err is one of the soft faults attached to a
// completed transaction rather than a failure.
func IsWarning(err error) bool {
	return errors.Is(err, ErrCountMismatch) ||
		errors.Is(err, ErrWriteVerification) ||
		errors.Is(err, ErrChipFamily)
}
