// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vtetest builds internally consistent VTE packages for tests:
// a synthetic tlock capsule, a real ctx_v2 context hash, a secp256k1
// R2 point, and a BIP-340 schnorr binding signature. The commitment
// proof is placeholder bytes; nothing in the module verifies it
// without an injected verifier.
package vtetest

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/vte"
)

// Params controls the generated fixture. Zero fields take the
// defaults documented on each field.
type Params struct {
	// Round defaults to 1000.
	Round uint64
	// ChainHashHex defaults to vte.QuicknetChainHash.
	ChainHashHex string
	// SessionID defaults to "demo-session-123".
	SessionID string
	// RefundTx defaults to 32 bytes of 0x01.
	RefundTx []byte
	// Scalar defaults to 32 bytes of 0x07.
	Scalar []byte
	// Payload is the capsule body after the age header.
	Payload []byte
}

// Fixture is a generated package along with the secret used to build
// it.
type Fixture struct {
	Scalar  []byte
	Package *vte.Package
	JSON    []byte
}

// New returns a fixture with default parameters.
func New(t testing.TB) *Fixture {
	t.Helper()
	return Build(t, Params{})
}

// Build returns a fixture for params.
func Build(t testing.TB, params Params) *Fixture {
	t.Helper()

	if params.Round == 0 {
		params.Round = 1000
	}
	if params.ChainHashHex == "" {
		params.ChainHashHex = vte.QuicknetChainHash
	}
	if params.SessionID == "" {
		params.SessionID = "demo-session-123"
	}
	if params.RefundTx == nil {
		params.RefundTx = bytes.Repeat([]byte{0x01}, 32)
	}
	if params.Scalar == nil {
		params.Scalar = bytes.Repeat([]byte{0x07}, 32)
	}
	if params.Payload == nil {
		params.Payload = []byte("sealed payload")
	}

	chainHash, err := codec.HexToBytes(params.ChainHashHex)
	if err != nil {
		t.Fatalf("vtetest: chain hash: %v", err)
	}

	capsule := Capsule(params.Round, params.ChainHashHex, params.Payload)
	capsuleHash := sha256.Sum256(capsule)
	ctxHash, err := vte.ContextHash(vte.ContextInput{
		ChainHash:   chainHash,
		Round:       params.Round,
		CapsuleHash: capsuleHash[:],
		SessionID:   params.SessionID,
		RefundTx:    params.RefundTx,
	})
	if err != nil {
		t.Fatalf("vtetest: context hash: %v", err)
	}

	privateKey, publicKey := btcec.PrivKeyFromBytes(params.Scalar)
	commitment := sha256.Sum256(append(append([]byte("VTE_COMMIT_V1"), params.Scalar...), ctxHash[:]...))

	pkg := &vte.Package{
		Version: vte.Version,
		Round:   params.Round,
		NetworkID: &vte.NetworkID{
			ChainHash:          chainHash,
			TlockVersion:       "v1.0.0",
			CiphertextFormatID: vte.FormatTlockV1,
			DrandEndpoints:     []string{"https://api.drand.sh"},
		},
		Capsule: &vte.Capsule{
			Data:     capsule,
			Checksum: vte.CapsuleChecksum(capsule),
		},
		Context: &vte.Context{
			SchemaID:    vte.ContextSchemaV2,
			Fields:      vte.ContextFieldsV2,
			SessionID:   params.SessionID,
			RefundTxHex: codec.BytesToHex(params.RefundTx),
			CtxHash:     ctxHash[:],
		},
		Public: &vte.PublicInputs{
			R2Format:   vte.R2FormatCompressed,
			R2:         publicKey.SerializeCompressed(),
			Commitment: commitment[:],
		},
		Proofs: &vte.Proofs{
			Commitment: &vte.CommitmentProof{CircuitID: "mimc_commitment_v1", Proof: []byte("placeholder-proof")},
			Schnorr:    &vte.SchnorrProof{SchemeID: vte.SchnorrSchemeV1, BindFields: vte.DefaultBindFields},
			TLE:        &vte.TLEProof{Status: vte.TLEStatusNotImplemented},
		},
	}

	message, err := vte.SchnorrMessage(pkg, pkg.Proofs.Schnorr.BindFields)
	if err != nil {
		t.Fatalf("vtetest: schnorr message: %v", err)
	}
	signature, err := schnorr.Sign(privateKey, message[:])
	if err != nil {
		t.Fatalf("vtetest: schnorr sign: %v", err)
	}
	pkg.Proofs.Schnorr.Signature = signature.Serialize()

	encoded, err := json.Marshal(pkg)
	if err != nil {
		t.Fatalf("vtetest: marshal: %v", err)
	}
	return &Fixture{Scalar: params.Scalar, Package: pkg, JSON: encoded}
}

// Mutate applies edit to a deep copy of the fixture's package and
// returns the re-encoded JSON. Signatures and hashes are not
// recomputed, so the result is a tampered package.
func (f *Fixture) Mutate(t testing.TB, edit func(*vte.Package)) []byte {
	t.Helper()
	var clone vte.Package
	if err := json.Unmarshal(f.JSON, &clone); err != nil {
		t.Fatalf("vtetest: clone: %v", err)
	}
	edit(&clone)
	encoded, err := json.Marshal(&clone)
	if err != nil {
		t.Fatalf("vtetest: marshal mutated: %v", err)
	}
	return encoded
}

// Capsule returns an age-framed tlock capsule with a synthetic stanza:
// a 48-byte ephemeral key, a 16-byte mask, and a 16-byte tag, followed
// by payload after the header MAC line. The stanza body is wrapped at
// 64 columns as age requires.
func Capsule(round uint64, chainHashHex string, payload []byte) []byte {
	body := make([]byte, 0, 80)
	body = append(body, bytes.Repeat([]byte{0xA1}, 48)...)
	body = append(body, bytes.Repeat([]byte{0xB2}, 16)...)
	body = append(body, bytes.Repeat([]byte{0xC3}, 16)...)

	var buffer bytes.Buffer
	buffer.WriteString("age-encryption.org/v1\n")
	fmt.Fprintf(&buffer, "-> tlock %d %s\n", round, chainHashHex)
	encoded := base64.RawStdEncoding.EncodeToString(body)
	for len(encoded) >= 64 {
		buffer.WriteString(encoded[:64] + "\n")
		encoded = encoded[64:]
	}
	buffer.WriteString(encoded + "\n")
	buffer.WriteString("--- " + base64.RawStdEncoding.EncodeToString(bytes.Repeat([]byte{0xD4}, 32)) + "\n")
	buffer.Write(payload)
	return buffer.Bytes()
}
