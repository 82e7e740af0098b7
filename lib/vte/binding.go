// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vte

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const (
	contextDomain = "VTE_CTX_V2"
	schnorrDomain = "VTE_SCHNORR_BIND_V1"
)

// ContextInput is the set of values bound by a ctx_v2 context hash.
type ContextInput struct {
	ChainHash   []byte
	Round       uint64
	CapsuleHash []byte
	SessionID   string
	RefundTx    []byte
}

// ContextHash computes the ctx_v2 hash:
//
//	SHA-256("VTE_CTX_V2" || chain_hash || u64be(round) || capsule_hash || session_id || refund_tx)
//
// Chain hash and capsule hash must both be 32 bytes.
func ContextHash(input ContextInput) ([32]byte, error) {
	if len(input.ChainHash) != ChainHashSize {
		return [32]byte{}, fmt.Errorf("chain hash is %d bytes, want %d", len(input.ChainHash), ChainHashSize)
	}
	if len(input.CapsuleHash) != sha256Size {
		return [32]byte{}, fmt.Errorf("capsule hash is %d bytes, want %d", len(input.CapsuleHash), sha256Size)
	}

	hash := sha256.New()
	hash.Write([]byte(contextDomain))
	hash.Write(input.ChainHash)
	hash.Write(binary.BigEndian.AppendUint64(nil, input.Round))
	hash.Write(input.CapsuleHash)
	hash.Write([]byte(input.SessionID))
	hash.Write(input.RefundTx)

	var sum [32]byte
	hash.Sum(sum[:0])
	return sum, nil
}

// BindValue returns the serialized value a schnorr bind field names.
func (p *Package) BindValue(field string) ([]byte, error) {
	switch field {
	case BindR2:
		return p.Public.R2, nil
	case BindCommitment:
		return p.Public.Commitment, nil
	case BindCtxHash:
		return p.Context.CtxHash, nil
	case BindCapsuleHash:
		sum := p.CapsuleHash()
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unknown schnorr bind field %q", field)
	}
}

// SchnorrMessage rebuilds the 32-byte message a schnorr binding proof
// signs: SHA-256 over a domain tag followed by each named value,
// length-prefixed as u32be, in the order given.
func SchnorrMessage(p *Package, fields []string) ([32]byte, error) {
	if len(fields) == 0 {
		return [32]byte{}, fmt.Errorf("no bind fields")
	}

	hash := sha256.New()
	hash.Write([]byte(schnorrDomain))
	for _, field := range fields {
		value, err := p.BindValue(field)
		if err != nil {
			return [32]byte{}, err
		}
		hash.Write(binary.BigEndian.AppendUint32(nil, uint32(len(value))))
		hash.Write(value)
	}

	var sum [32]byte
	hash.Sum(sum[:0])
	return sum, nil
}
