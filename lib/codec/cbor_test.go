// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// wireEnvelope mirrors the shape of an engine request: cbor tags, an
// operation name, and an opaque payload.
type wireEnvelope struct {
	ID      uint64 `cbor:"id"`
	Op      string `cbor:"op"`
	Payload []byte `cbor:"payload,omitempty"`
}

// sharedParams uses json tags only, like payloads that are also
// printed by the CLI.
type sharedParams struct {
	Round     uint64 `json:"round"`
	ChainHash string `json:"chain_hash"`
}

func TestEnvelopeStreamRoundtrip(t *testing.T) {
	envelopes := []wireEnvelope{
		{ID: 1, Op: "INIT"},
		{ID: 2, Op: "COMPUTE_R2_POINT", Payload: []byte{0x01, 0x02}},
		{ID: 3, Op: "VERIFY_VTE", Payload: []byte(`{"round":1000}`)},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, envelope := range envelopes {
		if err := encoder.Encode(envelope); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range envelopes {
		var got wireEnvelope
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode envelope %d: %v", i, err)
		}
		if got.ID != want.ID || got.Op != want.Op || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("envelope %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestMarshalDeterministic(t *testing.T) {
	params := map[string]any{
		"round":      uint64(1000),
		"chain_hash": "52db9ba7",
		"format_id":  "tlock_v1_age_pairing",
	}

	first, err := Marshal(params)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(params)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestJSONTagFallback(t *testing.T) {
	original := sharedParams{Round: 1000, ChainHash: "abcd"}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if _, ok := decoded["chain_hash"]; !ok {
		t.Errorf("decoded keys = %v, want json tag name chain_hash", decoded)
	}

	var roundtrip sharedParams
	if err := Unmarshal(data, &roundtrip); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if roundtrip != original {
		t.Errorf("roundtrip = %+v, want %+v", roundtrip, original)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var envelope wireEnvelope
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &envelope); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	type deferred struct {
		Op      string     `cbor:"op"`
		Payload RawMessage `cbor:"payload"`
	}

	payload, err := Marshal(sharedParams{Round: 7, ChainHash: "ff"})
	if err != nil {
		t.Fatalf("Marshal payload: %v", err)
	}
	data, err := Marshal(deferred{Op: "VERIFY_VTE", Payload: payload})
	if err != nil {
		t.Fatalf("Marshal envelope: %v", err)
	}

	var envelope deferred
	if err := Unmarshal(data, &envelope); err != nil {
		t.Fatalf("Unmarshal envelope: %v", err)
	}
	var params sharedParams
	if err := Unmarshal(envelope.Payload, &params); err != nil {
		t.Fatalf("Unmarshal payload: %v", err)
	}
	if params.Round != 7 {
		t.Errorf("Round = %d, want 7", params.Round)
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"op": "INIT"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"INIT"`) {
		t.Errorf("notation %q does not contain \"INIT\"", notation)
	}
}
