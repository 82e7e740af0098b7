// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bureau-foundation/vte/lib/fault"
)

// ErrInvalidEncoding is returned when a hex or base64 string cannot be
// decoded. Callers treat it as a validation failure: nothing built from
// the input may reach the engine.
var ErrInvalidEncoding = fault.New(fault.Validation, "invalid encoding")

// HexToBytes decodes a hexadecimal string. Upper and lower case digits
// are both accepted. Odd-length input and non-hex characters fail with
// ErrInvalidEncoding.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: hex string has odd length %d", ErrInvalidEncoding, len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return decoded, nil
}

// BytesToHex encodes b as lowercase hexadecimal with no separators.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// Base64ToBytes decodes canonical standard padded base64: unused
// trailing bits must be zero and line breaks are rejected, so every
// byte string has exactly one accepted encoding.
func Base64ToBytes(s string) ([]byte, error) {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return nil, fmt.Errorf("%w: line break at offset %d in base64", ErrInvalidEncoding, i)
	}
	decoded, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return decoded, nil
}

// BytesToBase64 encodes b as standard padded base64.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// HexToBase64 re-encodes an engine hex value in the base64 form package
// fields use.
func HexToBase64(s string) (string, error) {
	decoded, err := HexToBytes(s)
	if err != nil {
		return "", err
	}
	return BytesToBase64(decoded), nil
}

// Base64ToHex re-encodes a base64 package field as lowercase hex for
// use as an engine parameter.
func Base64ToHex(s string) (string, error) {
	decoded, err := Base64ToBytes(s)
	if err != nil {
		return "", err
	}
	return BytesToHex(decoded), nil
}
