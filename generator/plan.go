// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"
)

// Plan is a complete set of generation inputs, authored as JSONC:
//
//	{
//	  "session_id": "demo-session-123",
//	  "refund_tx_hex": "0101...",
//	  "chain_hash": "52db9ba7...",
//	  "endpoints": ["https://api.drand.sh"],
//	  "strategy": "auto",
//	  // one of unlock_time (RFC 3339), unlock_in (duration), round
//	  "unlock_in": "1h",
//	  // one of plaintext, scalar_hex
//	  "plaintext": "meet at dawn",
//	}
type Plan struct {
	SessionID   string   `json:"session_id"`
	RefundTxHex string   `json:"refund_tx_hex"`
	ChainHash   string   `json:"chain_hash"`
	Endpoints   []string `json:"endpoints"`
	Strategy    string   `json:"strategy,omitempty"`
	UnlockTime  string   `json:"unlock_time,omitempty"`
	UnlockIn    string   `json:"unlock_in,omitempty"`
	Round       *uint64  `json:"round,omitempty"`
	ScalarHex   string   `json:"scalar_hex,omitempty"`
	Plaintext   string   `json:"plaintext,omitempty"`
}

// ParsePlan strips JSONC comments and trailing commas from data and
// decodes a Plan. Unknown fields are rejected.
func ParsePlan(data []byte) (*Plan, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var plan Plan
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parsing generation plan: %w", err)
	}
	return &plan, nil
}

// LoadPlan reads and parses a JSONC plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// Apply drives flow from StageContext through Generate. unlock_in is
// measured from the flow's clock. The flow is left at the stage that
// rejected its input.
func (p *Plan) Apply(ctx context.Context, flow *Flow) (*Result, error) {
	if err := flow.SubmitContext(ContextInput{SessionID: p.SessionID, RefundTxHex: p.RefundTxHex}); err != nil {
		return nil, err
	}

	network := NetworkInput{
		ChainHashHex: p.ChainHash,
		Endpoints:    p.Endpoints,
		Strategy:     p.Strategy,
		ManualRound:  p.Round,
	}
	switch {
	case p.UnlockTime != "" && p.UnlockIn != "":
		return nil, fmt.Errorf("%w: unlock_time and unlock_in are exclusive", ErrInvalidInput)
	case p.UnlockTime != "":
		unlock, err := time.Parse(time.RFC3339, p.UnlockTime)
		if err != nil {
			return nil, fmt.Errorf("%w: unlock_time: %w", ErrInvalidInput, err)
		}
		network.UnlockTime = unlock
	case p.UnlockIn != "":
		delay, err := time.ParseDuration(p.UnlockIn)
		if err != nil {
			return nil, fmt.Errorf("%w: unlock_in: %w", ErrInvalidInput, err)
		}
		network.UnlockTime = flow.clock.Now().Add(delay)
	}
	if err := flow.SubmitNetwork(ctx, network); err != nil {
		return nil, err
	}

	if err := flow.SubmitSecret(SecretInput{ScalarHex: p.ScalarHex, Plaintext: p.Plaintext}); err != nil {
		return nil, err
	}
	return flow.Generate(ctx)
}
