// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package round maps wall-clock unlock times onto beacon rounds.
//
// A beacon network publishes round r at genesis + r*period seconds.
// The target round for an unlock time is the first round published at
// or after it, so a package never opens early.
package round

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/vte/lib/fault"
)

var (
	// ErrInThePast is returned when the unlock time is not strictly
	// after the current time.
	ErrInThePast = fault.New(fault.Validation, "unlock time is in the past")

	// ErrInvalidSchedule is returned for schedules with a non-positive
	// period.
	ErrInvalidSchedule = fault.New(fault.Validation, "invalid beacon schedule")
)

// Advisory is a non-fatal warning attached to a computed round.
type Advisory string

const (
	// NoAdvisory means the computed round needs no caveat.
	NoAdvisory Advisory = ""

	// LeadTimeTooShort means fewer than two periods separate now and
	// the unlock time, so the round may be published before the
	// package reaches its recipient.
	LeadTimeTooShort Advisory = "lead_time_too_short"
)

// Schedule is a beacon network's linear publication schedule. Both
// fields are whole seconds; GenesisTime is a Unix timestamp.
type Schedule struct {
	GenesisTime int64 `json:"genesis_time"`
	Period      int64 `json:"period"`
}

// Validate reports whether the schedule can be used for arithmetic.
func (s Schedule) Validate() error {
	if s.Period <= 0 {
		return fmt.Errorf("%w: period %d must be positive", ErrInvalidSchedule, s.Period)
	}
	return nil
}

// RoundTime returns the instant the beacon for round is published.
func (s Schedule) RoundTime(round uint64) time.Time {
	return time.Unix(s.GenesisTime+int64(round)*s.Period, 0).UTC()
}

// CurrentRound returns the latest round published at or before now,
// or zero before genesis.
func (s Schedule) CurrentRound(now time.Time) uint64 {
	if s.Period <= 0 {
		return 0
	}
	elapsed := now.Unix() - s.GenesisTime
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / s.Period)
}

// Result is a computed target round.
type Result struct {
	Round    uint64   `json:"round"`
	Advisory Advisory `json:"advisory,omitempty"`
}

// Calculate returns the target round for unlock given the current time:
// ceil((unlock - genesis) / period), clamped at zero. Times are
// truncated to whole seconds.
//
// Unlock times at or before now fail with ErrInThePast. If the unlock
// time is less than two periods away the result carries the
// LeadTimeTooShort advisory.
func Calculate(schedule Schedule, unlock, now time.Time) (Result, error) {
	if err := schedule.Validate(); err != nil {
		return Result{}, err
	}

	unlockSeconds := unlock.Unix()
	nowSeconds := now.Unix()
	if unlockSeconds <= nowSeconds {
		return Result{}, fmt.Errorf("%w: unlock %s is not after %s",
			ErrInThePast, unlock.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}

	var result Result
	if unlockSeconds-nowSeconds < 2*schedule.Period {
		result.Advisory = LeadTimeTooShort
	}

	sinceGenesis := unlockSeconds - schedule.GenesisTime
	if sinceGenesis > 0 {
		result.Round = uint64((sinceGenesis + schedule.Period - 1) / schedule.Period)
	}
	return result, nil
}
