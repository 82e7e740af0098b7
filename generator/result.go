// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bureau-foundation/vte/lib/round"
	"github.com/bureau-foundation/vte/lib/vte"
)

// Top-level display fields added by Document. They sit outside every
// package group, so nothing verifies or reads them.
const (
	FieldPlaintextHint = "plaintext_hint"
	FieldUnlockTimeUTC = "unlock_time_utc"
)

// Result is a generated package.
type Result struct {
	// PackageJSON is the engine's output, unmodified.
	PackageJSON []byte

	// Package is PackageJSON parsed.
	Package *vte.Package

	// Target is the round the package unlocks at, with any advisory
	// raised when it was computed.
	Target round.Result

	// PlaintextHint is the plaintext the scalar was derived from, empty
	// for a raw scalar.
	PlaintextHint string

	// UnlockTime is the requested unlock time, zero when the round was
	// given directly.
	UnlockTime time.Time
}

// Document returns the package JSON with the display hints appended
// as top-level fields: plaintext_hint for a plaintext secret and
// unlock_time_utc for a time-based round. The engine's bytes are kept
// verbatim ahead of the added fields.
func (r *Result) Document() ([]byte, error) {
	var extra [][2]string
	if r.PlaintextHint != "" {
		extra = append(extra, [2]string{FieldPlaintextHint, r.PlaintextHint})
	}
	if !r.UnlockTime.IsZero() {
		extra = append(extra, [2]string{FieldUnlockTimeUTC, r.UnlockTime.UTC().Format(time.RFC3339)})
	}
	if len(extra) == 0 {
		return bytes.Clone(r.PackageJSON), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.PackageJSON, &fields); err != nil {
		return nil, fmt.Errorf("package is not a JSON object: %w", err)
	}
	body := bytes.TrimRight(r.PackageJSON, " \t\r\n")
	body = body[:len(body)-1]

	var document bytes.Buffer
	document.Write(body)
	needComma := len(fields) > 0
	for _, field := range extra {
		if _, exists := fields[field[0]]; exists {
			return nil, fmt.Errorf("package already has a top-level %q field", field[0])
		}
		value, err := json.Marshal(field[1])
		if err != nil {
			return nil, err
		}
		if needComma {
			document.WriteByte(',')
		}
		needComma = true
		key, _ := json.Marshal(field[0])
		document.Write(key)
		document.WriteByte(':')
		document.Write(value)
	}
	document.WriteByte('}')
	return document.Bytes(), nil
}
