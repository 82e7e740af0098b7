// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vte

import (
	"crypto/sha256"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/vte/lib/codec"
)

const (
	// Version is the package schema version produced by generation.
	Version = "vte-tlock/0.2"

	// FormatTlockV1 identifies age-framed tlock ciphertext with a
	// BLS12-381 pairing stanza.
	FormatTlockV1 = "tlock_v1_age_pairing"

	// ContextSchemaV2 names the context hash layout implemented by
	// ContextHash.
	ContextSchemaV2 = "ctx_v2"

	// R2FormatCompressed is SEC1 compressed point encoding (33 bytes).
	R2FormatCompressed = "sec1_compressed"

	// SchnorrSchemeV1 is BIP-340 over the SchnorrMessage layout.
	SchnorrSchemeV1 = "schnorr_fs_v1"

	// TLEStatusNotImplemented marks packages without a timelock
	// encryption proof.
	TLEStatusNotImplemented = "not_implemented"

	// ChainHashSize is the length of a beacon chain hash.
	ChainHashSize = 32

	// ScalarSize is the length of the secret scalar r2.
	ScalarSize = 32

	// QuicknetChainHash is the hex chain hash of the drand quicknet
	// network, the default beacon network.
	QuicknetChainHash = "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971"
)

// ContextFieldsV2 is the ordered list of fields hashed into a ctx_v2
// context hash.
var ContextFieldsV2 = []string{"drand_chain_hash", "round", "capsule_hash", "session_id", "refund_tx_hex"}

// Bind field names accepted in a schnorr proof's bind_fields.
const (
	BindR2          = "R2"
	BindCommitment  = "commitment"
	BindCtxHash     = "ctx_hash"
	BindCapsuleHash = "capsule_hash"
)

// DefaultBindFields is the bind_fields list written by generation.
var DefaultBindFields = []string{BindR2, BindCommitment, BindCtxHash, BindCapsuleHash}

// Package is one VTE package. Group pointers are nil when the group is
// absent from the JSON; Parse rejects packages missing a required
// group.
type Package struct {
	Version   string        `json:"version"`
	Round     uint64        `json:"round"`
	NetworkID *NetworkID    `json:"network_id"`
	Capsule   *Capsule      `json:"capsule"`
	Context   *Context      `json:"context"`
	Public    *PublicInputs `json:"public"`
	Proofs    *Proofs       `json:"proofs"`
	Meta      *Meta         `json:"meta,omitempty"`
}

// NetworkID identifies the beacon network and ciphertext format a
// package is bound to.
type NetworkID struct {
	ChainHash          []byte   `json:"chain_hash"`
	TlockVersion       string   `json:"tlock_version"`
	CiphertextFormatID string   `json:"ciphertext_format_id"`
	TrustChainHash     bool     `json:"trust_chain_hash"`
	DrandEndpoints     []string `json:"drand_endpoints"`
}

// Capsule is the opaque ciphertext. Checksum, when present, is
// BLAKE3-256 of Data.
type Capsule struct {
	Data     []byte `json:"data"`
	Checksum []byte `json:"checksum,omitempty"`
}

// Context binds a package to one protocol session.
type Context struct {
	SchemaID    string   `json:"schema_id"`
	Fields      []string `json:"fields"`
	SessionID   string   `json:"session_id"`
	RefundTxHex string   `json:"refund_tx_hex"`
	CtxHash     []byte   `json:"ctx_hash"`
}

// PublicInputs is the public half of the secret scalar and its
// commitment.
type PublicInputs struct {
	R2Format   string `json:"r2_format"`
	R2         []byte `json:"r2"`
	Commitment []byte `json:"commitment"`
}

// Proofs groups the proofs carried by a package. Any individual proof
// may be absent.
type Proofs struct {
	Commitment *CommitmentProof `json:"commitment,omitempty"`
	Schnorr    *SchnorrProof    `json:"schnorr,omitempty"`
	TLE        *TLEProof        `json:"tle,omitempty"`
}

// CommitmentProof is a zero-knowledge proof that the commitment opens
// to the scalar behind R2.
type CommitmentProof struct {
	CircuitID string `json:"circuit_id"`
	Proof     []byte `json:"proof"`
}

// SchnorrProof is a BIP-340 signature by the R2 key over the values
// named in BindFields, in order.
type SchnorrProof struct {
	SchemeID   string   `json:"scheme_id"`
	BindFields []string `json:"bind_fields"`
	Signature  []byte   `json:"signature"`
}

// TLEProof records the state of the timelock-encryption proof.
type TLEProof struct {
	Status string `json:"status"`
}

// Meta carries display hints. Nothing here is authenticated and
// verification never reads it.
type Meta struct {
	UnlockTimeUTC string `json:"unlock_time_utc,omitempty"`
	PlaintextHint string `json:"plaintext_hint,omitempty"`
}

// ChainHashHex returns the network chain hash as an engine parameter.
func (p *Package) ChainHashHex() string {
	return codec.BytesToHex(p.NetworkID.ChainHash)
}

// CapsuleHash returns SHA-256 of the capsule data, the value bound
// into the context hash.
func (p *Package) CapsuleHash() [32]byte {
	return sha256.Sum256(p.Capsule.Data)
}

// HasSchnorrProof reports whether the package carries a schnorr
// proof object.
func (p *Package) HasSchnorrProof() bool {
	return p.Proofs != nil && p.Proofs.Schnorr != nil
}

// CapsuleChecksum returns BLAKE3-256 of data.
func CapsuleChecksum(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}
