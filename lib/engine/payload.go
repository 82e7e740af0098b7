// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

// Hex-encoded fields carry lowercase hexadecimal. Package fields carry
// the package's JSON bytes exactly as the caller holds them.

// InitResult answers INIT. An engine still loading reports Ready
// false; the client polls until it flips.
type InitResult struct {
	Ready   bool   `json:"ready"`
	Version string `json:"version,omitempty"`
}

// Proof-generation strategies accepted by GENERATE_VTE.
const (
	StrategyAuto  = "auto"
	StrategyGnark = "gnark"
	StrategyZKVM  = "zkvm"
)

// GenerateParams is the GENERATE_VTE payload.
type GenerateParams struct {
	Round       uint64   `json:"round"`
	ChainHash   string   `json:"chain_hash"`
	FormatID    string   `json:"format_id"`
	Scalar      string   `json:"scalar"`
	RefundTxHex string   `json:"refund_tx_hex"`
	SessionID   string   `json:"session_id"`
	Endpoints   []string `json:"endpoints"`
	Strategy    string   `json:"strategy"`
}

// GenerateResult carries the produced package JSON.
type GenerateResult struct {
	Package []byte `json:"package"`
}

// CtxHashParams is the COMPUTE_CTX_HASH payload.
type CtxHashParams struct {
	SessionID   string `json:"session_id"`
	RefundTxHex string `json:"refund_tx_hex"`
	ChainHash   string `json:"chain_hash"`
	Round       uint64 `json:"round"`
	CapsuleHash string `json:"capsule_hash"`
}

// CtxHashResult carries the computed context hash in hex.
type CtxHashResult struct {
	CtxHash string `json:"ctx_hash"`
}

// DecryptParams is the DECRYPT_VTE payload.
type DecryptParams struct {
	Package   []byte   `json:"package"`
	Endpoints []string `json:"endpoints"`
}

// DecryptResult carries the recovered plaintext, base64 encoded.
type DecryptResult struct {
	PlaintextBase64 string `json:"plaintext_base64"`
}

// VerifyParams is the VERIFY_VTE payload. The expected values are
// what the verifier requires the package to be bound to.
type VerifyParams struct {
	Package     []byte `json:"package"`
	Round       uint64 `json:"round"`
	ChainHash   string `json:"chain_hash"`
	FormatID    string `json:"format_id"`
	SessionID   string `json:"session_id"`
	RefundTxHex string `json:"refund_tx_hex"`
}

// Category tags a verification failure with the check it belongs to.
type Category string

const (
	CategoryNetworkBinding  Category = "network_binding"
	CategoryCapsuleBinding  Category = "capsule_binding"
	CategoryCommitmentProof Category = "commitment_proof"
	CategorySchnorrBinding  Category = "schnorr_binding"
	CategoryOther           Category = "other"
)

// Failure is one failed verification check.
type Failure struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// VerifyResult is the structured VERIFY_VTE answer. An empty Failures
// list means every check the engine ran passed. Checked lists the
// categories the engine evaluated independently; engines that predate
// it leave it empty.
type VerifyResult struct {
	Failures []Failure  `json:"failures,omitempty"`
	Checked  []Category `json:"checked,omitempty"`
}

// R2PointParams is the COMPUTE_R2_POINT payload.
type R2PointParams struct {
	Scalar string `json:"scalar"`
}

// R2PointResult carries the public point for a scalar.
type R2PointResult struct {
	Format string `json:"format"`
	R2     string `json:"r2"`
}

// ParseCapsuleParams is the PARSE_CAPSULE payload.
type ParseCapsuleParams struct {
	Capsule  []byte `json:"capsule"`
	FormatID string `json:"format_id"`
}

// CapsuleFields are the bindable components of a parsed capsule.
type CapsuleFields struct {
	Round        uint64 `json:"round"`
	ChainHash    string `json:"chain_hash"`
	EphemeralKey []byte `json:"ephemeral_key"`
	Mask         []byte `json:"mask"`
	Tag          []byte `json:"tag"`
	Ciphertext   []byte `json:"ciphertext"`
}
