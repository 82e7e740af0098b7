// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/bureau-foundation/vte/lib/fault"
)

// maxHexInput bounds ReadHex. A scalar is 64 hex digits; the slack
// covers surrounding whitespace.
const maxHexInput = 4096

var (
	// ErrEmpty is returned when the input holds only whitespace.
	ErrEmpty = fault.New(fault.Validation, "empty input")

	// ErrInvalidHex is returned for malformed or wrongly sized input.
	ErrInvalidHex = fault.New(fault.Validation, "invalid secret hex")
)

// ReadHex reads hex text from r, ignoring surrounding whitespace, and
// decodes it into a new Buffer. When size is positive the decoded
// secret must be exactly size bytes. Every intermediate copy of the
// input is zeroed before returning.
func ReadHex(r io.Reader, size int) (*Buffer, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxHexInput+1))
	defer Zero(raw)
	if err != nil {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	if len(raw) > maxHexInput {
		return nil, fmt.Errorf("%w: input exceeds %d bytes", ErrInvalidHex, maxHexInput)
	}

	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return nil, ErrEmpty
	}
	if len(text)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits", ErrInvalidHex)
	}
	decodedSize := len(text) / 2
	if size > 0 && decodedSize != size {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidHex, decodedSize, size)
	}

	buffer, err := New(decodedSize)
	if err != nil {
		return nil, err
	}
	if _, err := hex.Decode(buffer.Bytes(), text); err != nil {
		buffer.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return buffer, nil
}
