// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nativeengine

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/vte"
)

// ErrInvalidScalar is returned for a scalar that is not a valid
// secp256k1 private key.
var ErrInvalidScalar = fault.New(fault.Validation, "invalid scalar")

// R2Point returns the SEC1 compressed encoding of scalar·G on
// secp256k1. The scalar must be 32 bytes, non-zero, and below the
// group order.
func R2Point(scalar []byte) ([]byte, error) {
	if len(scalar) != vte.ScalarSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidScalar, len(scalar), vte.ScalarSize)
	}
	var value btcec.ModNScalar
	if overflow := value.SetByteSlice(scalar); overflow || value.IsZero() {
		return nil, fmt.Errorf("%w: out of range", ErrInvalidScalar)
	}
	_, publicKey := btcec.PrivKeyFromBytes(scalar)
	return publicKey.SerializeCompressed(), nil
}

// verifySchnorr checks the package's BIP-340 binding signature, made
// by the R2 key over the bind fields in order.
func verifySchnorr(p *vte.Package) error {
	proof := p.Proofs.Schnorr
	if proof.SchemeID != vte.SchnorrSchemeV1 {
		return fmt.Errorf("unsupported scheme %q", proof.SchemeID)
	}
	if p.Public.R2Format != "" && p.Public.R2Format != vte.R2FormatCompressed {
		return fmt.Errorf("unsupported r2 format %q", p.Public.R2Format)
	}

	publicKey, err := btcec.ParsePubKey(p.Public.R2)
	if err != nil {
		return fmt.Errorf("r2: %w", err)
	}
	signature, err := schnorr.ParseSignature(proof.Signature)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	message, err := vte.SchnorrMessage(p, proof.BindFields)
	if err != nil {
		return err
	}
	if !signature.Verify(message[:], publicKey) {
		return errors.New("signature does not verify")
	}
	return nil
}
