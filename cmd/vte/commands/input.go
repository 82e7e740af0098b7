// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// readInput reads the single positional argument as a file path, or
// stdin when the argument is "-" or absent.
func readInput(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one input file, got %d arguments", len(args))
	}
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", args[0], err)
		}
		return data, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: expected a file argument or data on stdin")
	}
	return data, nil
}

// roundFlag is a beacon round flag that records whether it was given,
// so that round 0 can be passed explicitly.
type roundFlag struct {
	value uint64
	set   bool
}

func explicitRound(round uint64) roundFlag { return roundFlag{value: round, set: true} }

func (f *roundFlag) String() string {
	if !f.set {
		return ""
	}
	return strconv.FormatUint(f.value, 10)
}

func (f *roundFlag) Set(value string) error {
	round, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid round %q", value)
	}
	f.value, f.set = round, true
	return nil
}

func (f *roundFlag) Type() string { return "uint64" }

// pointer returns the round, or nil when the flag was not given.
func (f *roundFlag) pointer() *uint64 {
	if !f.set {
		return nil
	}
	round := f.value
	return &round
}
