// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nativeengine

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"filippo.io/age/armor"

	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/vte"
)

// ErrInvalidCapsule is returned when a capsule does not parse in its
// declared format.
var ErrInvalidCapsule = fault.New(fault.Validation, "invalid capsule")

const (
	ageVersionLine = "age-encryption.org/v1"
	stanzaPrefix   = "-> "
	macPrefix      = "---"
	tlockStanza    = "tlock"

	// stanzaColumns is the width of every stanza body line but the
	// last, which is always shorter (possibly empty).
	stanzaColumns = 64

	maskSize = 16
	tagSize  = 16
)

// ParseCapsule splits a capsule into its bindable fields. An empty
// formatID means vte.FormatTlockV1, the only format understood here.
func ParseCapsule(data []byte, formatID string) (engine.CapsuleFields, error) {
	switch formatID {
	case vte.FormatTlockV1, "":
		return parseTlockV1(data)
	default:
		return engine.CapsuleFields{}, fmt.Errorf("%w: unsupported ciphertext format %q", ErrInvalidCapsule, formatID)
	}
}

// parseTlockV1 reads an age file, ASCII-armored or binary, whose
// header carries exactly one "-> tlock <round> <chain hash>" stanza.
// The stanza body is U || V || W with V and W 16 bytes each; U takes
// the rest, so both G1 and G2 ephemeral keys parse.
func parseTlockV1(data []byte) (engine.CapsuleFields, error) {
	decoded, err := dearmor(data)
	if err != nil {
		return engine.CapsuleFields{}, err
	}
	reader := bufio.NewReader(bytes.NewReader(decoded))

	line, err := readLine(reader)
	if err != nil {
		return engine.CapsuleFields{}, err
	}
	if line != ageVersionLine {
		return engine.CapsuleFields{}, fmt.Errorf("%w: unexpected version line %q", ErrInvalidCapsule, line)
	}

	var fields engine.CapsuleFields
	found := false
	for {
		line, err := readLine(reader)
		if err != nil {
			return engine.CapsuleFields{}, err
		}
		if strings.HasPrefix(line, macPrefix) {
			break
		}
		if !strings.HasPrefix(line, stanzaPrefix) {
			return engine.CapsuleFields{}, fmt.Errorf("%w: unexpected header line %q", ErrInvalidCapsule, line)
		}

		args := strings.Fields(strings.TrimPrefix(line, stanzaPrefix))
		body, err := readStanzaBody(reader)
		if err != nil {
			return engine.CapsuleFields{}, err
		}
		if len(args) == 0 {
			return engine.CapsuleFields{}, fmt.Errorf("%w: stanza without a type", ErrInvalidCapsule)
		}
		if args[0] != tlockStanza {
			continue
		}
		if found {
			return engine.CapsuleFields{}, fmt.Errorf("%w: more than one tlock stanza", ErrInvalidCapsule)
		}
		if err := fillTlockFields(&fields, args[1:], body); err != nil {
			return engine.CapsuleFields{}, err
		}
		found = true
	}
	if !found {
		return engine.CapsuleFields{}, fmt.Errorf("%w: no tlock stanza in header", ErrInvalidCapsule)
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		return engine.CapsuleFields{}, fmt.Errorf("%w: reading payload: %w", ErrInvalidCapsule, err)
	}
	fields.Ciphertext = payload
	return fields, nil
}

func fillTlockFields(fields *engine.CapsuleFields, args []string, body []byte) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: tlock stanza has %d arguments, want 2", ErrInvalidCapsule, len(args))
	}
	round, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: tlock round %q: %w", ErrInvalidCapsule, args[0], err)
	}
	chainHash, err := codec.HexToBytes(args[1])
	if err != nil || len(chainHash) != vte.ChainHashSize {
		return fmt.Errorf("%w: tlock chain hash %q", ErrInvalidCapsule, args[1])
	}
	if len(body) <= maskSize+tagSize {
		return fmt.Errorf("%w: tlock stanza body is %d bytes", ErrInvalidCapsule, len(body))
	}

	split := len(body) - maskSize - tagSize
	fields.Round = round
	fields.ChainHash = codec.BytesToHex(chainHash)
	fields.EphemeralKey = body[:split]
	fields.Mask = body[split : split+maskSize]
	fields.Tag = body[split+maskSize:]
	return nil
}

// dearmor returns data with any PEM-style age armor removed.
func dearmor(data []byte) ([]byte, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(armor.Header)) {
		return data, nil
	}
	decoded, err := io.ReadAll(armor.NewReader(bytes.NewReader(trimmed)))
	if err != nil {
		return nil, fmt.Errorf("%w: armor: %w", ErrInvalidCapsule, err)
	}
	return decoded, nil
}

// readStanzaBody reads base64 body lines up to and including the
// first line shorter than stanzaColumns.
func readStanzaBody(reader *bufio.Reader) ([]byte, error) {
	var body []byte
	for {
		line, err := readLine(reader)
		if err != nil {
			return nil, err
		}
		if len(line) > stanzaColumns {
			return nil, fmt.Errorf("%w: stanza body line is %d columns", ErrInvalidCapsule, len(line))
		}
		chunk, err := base64.RawStdEncoding.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("%w: stanza body: %w", ErrInvalidCapsule, err)
		}
		body = append(body, chunk...)
		if len(line) < stanzaColumns {
			return body, nil
		}
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: header is truncated", ErrInvalidCapsule)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCapsule, err)
	}
	return strings.TrimSuffix(line, "\n"), nil
}
