// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small network I/O helpers shared by the beacon
// client, the engine host, and the bridge client.
//
// Response helpers bound every body read at MaxResponseSize. Beacon
// endpoints are third-party servers; a misbehaving one must not be able
// to exhaust memory.
//
// IsExpectedCloseError separates ordinary connection teardown from
// failures worth logging.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON response body reads. Beacon info and
// round responses are a few hundred bytes.
const MaxResponseSize int64 = 1 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a bounded response body and JSON-decodes it
// into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorBody returns an error response body for diagnostics, truncated
// to 512 bytes. Read errors are ignored.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	if len(data) > 512 {
		data = data[:512]
	}
	return string(data)
}
