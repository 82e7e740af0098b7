// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"strings"

	"github.com/bureau-foundation/vte/lib/engine"
)

// Check names one checklist item.
type Check string

const (
	CheckStructural      Check = "structural"
	CheckNetworkBinding  Check = "network_binding"
	CheckCapsuleBinding  Check = "capsule_binding"
	CheckCommitmentProof Check = "commitment_proof"
	CheckSchnorrBinding  Check = "schnorr_binding"
)

// Checks lists every check in report order.
var Checks = []Check{
	CheckStructural,
	CheckNetworkBinding,
	CheckCapsuleBinding,
	CheckCommitmentProof,
	CheckSchnorrBinding,
}

// Status is the state of one check.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Item is one check with its status. Detail holds the failure message
// for a check in error.
type Item struct {
	Check  Check  `json:"check"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Checklist holds every check in Checks order.
type Checklist []Item

// NewChecklist returns a checklist with every check pending.
func NewChecklist() Checklist {
	checklist := make(Checklist, len(Checks))
	for i, check := range Checks {
		checklist[i] = Item{Check: check, Status: StatusPending}
	}
	return checklist
}

// Status returns the status of check, or pending for an unknown check.
func (c Checklist) Status(check Check) Status {
	for _, item := range c {
		if item.Check == check {
			return item.Status
		}
	}
	return StatusPending
}

// AllSuccess reports whether every check succeeded.
func (c Checklist) AllSuccess() bool {
	for _, item := range c {
		if item.Status != StatusSuccess {
			return false
		}
	}
	return len(c) == len(Checks)
}

// set updates check. A check already in error keeps its first detail.
func (c Checklist) set(check Check, status Status, detail string) {
	for i := range c {
		if c[i].Check != check {
			continue
		}
		if c[i].Status == StatusError && status == StatusError {
			return
		}
		c[i].Status = status
		c[i].Detail = detail
		return
	}
}

// categoryChecks maps structured engine categories onto checks.
// CategoryOther has no check.
var categoryChecks = map[engine.Category]Check{
	engine.CategoryNetworkBinding:  CheckNetworkBinding,
	engine.CategoryCapsuleBinding:  CheckCapsuleBinding,
	engine.CategoryCommitmentProof: CheckCommitmentProof,
	engine.CategorySchnorrBinding:  CheckSchnorrBinding,
}

// classify maps a free-text engine error onto the check it most
// likely concerns. Keywords are tested in precedence order and are
// case sensitive.
func classify(message string) (Check, bool) {
	switch {
	case strings.Contains(message, "network"):
		return CheckNetworkBinding, true
	case strings.Contains(message, "capsule"), strings.Contains(message, "cipher"):
		return CheckCapsuleBinding, true
	case strings.Contains(message, "ZK proof"):
		return CheckCommitmentProof, true
	case strings.Contains(message, "schnorr"):
		return CheckSchnorrBinding, true
	default:
		return "", false
	}
}
