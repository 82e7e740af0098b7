// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nativeengine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/vte"
)

// Message prefixes carry the category keyword for clients that only
// see the first failure as free text.
const (
	networkPrefix    = "network binding: "
	capsulePrefix    = "capsule binding: "
	commitmentPrefix = "ZK proof verification failed: "
	schnorrPrefix    = "schnorr proof verification failed: "
)

// Verify runs every check against the package in params and returns
// the failures in check order. Every expected value is enforced, and
// an empty expected value never matches. The schnorr category is evaluated, and
// listed in Checked, only when the package carries a schnorr proof.
func (e *Engine) Verify(ctx context.Context, params engine.VerifyParams) engine.VerifyResult {
	var checks verification

	pkg, err := vte.Parse(params.Package)
	if err != nil {
		checks.fail(engine.CategoryOther, "%v", err)
		return checks.result
	}
	if pkg.Version != vte.Version {
		checks.fail(engine.CategoryOther, "unsupported package version %q", pkg.Version)
	}

	checks.result.Checked = []engine.Category{
		engine.CategoryNetworkBinding,
		engine.CategoryCapsuleBinding,
		engine.CategoryCommitmentProof,
	}
	checks.network(pkg, params)
	checks.capsule(pkg, params)
	e.checkCommitment(ctx, &checks, pkg)
	if pkg.HasSchnorrProof() {
		checks.result.Checked = append(checks.result.Checked, engine.CategorySchnorrBinding)
		if err := verifySchnorr(pkg); err != nil {
			checks.fail(engine.CategorySchnorrBinding, schnorrPrefix+"%v", err)
		}
	}

	e.logger.Debug("package verified",
		"round", pkg.Round,
		"failures", len(checks.result.Failures),
		"checked", len(checks.result.Checked),
	)
	return checks.result
}

type verification struct {
	result engine.VerifyResult
}

func (v *verification) fail(category engine.Category, format string, args ...any) {
	v.result.Failures = append(v.result.Failures, engine.Failure{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *verification) network(pkg *vte.Package, params engine.VerifyParams) {
	network := pkg.NetworkID
	if network.TrustChainHash {
		v.fail(engine.CategoryNetworkBinding, networkPrefix+"trust_chain_hash must be false")
	}
	expected, err := codec.HexToBytes(params.ChainHash)
	switch {
	case err != nil:
		v.fail(engine.CategoryNetworkBinding, networkPrefix+"expected chain hash: %v", err)
	case len(expected) == 0:
		v.fail(engine.CategoryNetworkBinding, networkPrefix+"no expected chain hash")
	case !bytes.Equal(expected, network.ChainHash):
		v.fail(engine.CategoryNetworkBinding, networkPrefix+"chain hash %s does not match expected %s",
			pkg.ChainHashHex(), codec.BytesToHex(expected))
	}
	if pkg.Round != params.Round {
		v.fail(engine.CategoryNetworkBinding, networkPrefix+"round %d does not match expected %d", pkg.Round, params.Round)
	}
	if network.CiphertextFormatID != params.FormatID {
		v.fail(engine.CategoryNetworkBinding, networkPrefix+"ciphertext format %q does not match expected %q",
			network.CiphertextFormatID, params.FormatID)
	}
}

func (v *verification) capsule(pkg *vte.Package, params engine.VerifyParams) {
	fields, err := ParseCapsule(pkg.Capsule.Data, pkg.NetworkID.CiphertextFormatID)
	if err != nil {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"%v", err)
	} else {
		if fields.Round != pkg.Round {
			v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"stanza round %d does not match package round %d", fields.Round, pkg.Round)
		}
		if fields.ChainHash != pkg.ChainHashHex() {
			v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"stanza chain hash %s does not match package", fields.ChainHash)
		}
	}

	if checksum := pkg.Capsule.Checksum; len(checksum) > 0 && !bytes.Equal(checksum, vte.CapsuleChecksum(pkg.Capsule.Data)) {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"checksum does not match data")
	}

	bound := pkg.Context
	if bound.SchemaID != "" && bound.SchemaID != vte.ContextSchemaV2 {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"unsupported context schema %q", bound.SchemaID)
		return
	}
	refundTx, err := codec.HexToBytes(bound.RefundTxHex)
	if err != nil {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"refund_tx_hex: %v", err)
		return
	}
	capsuleHash := pkg.CapsuleHash()
	recomputed, err := vte.ContextHash(vte.ContextInput{
		ChainHash:   pkg.NetworkID.ChainHash,
		Round:       pkg.Round,
		CapsuleHash: capsuleHash[:],
		SessionID:   bound.SessionID,
		RefundTx:    refundTx,
	})
	if err != nil {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"%v", err)
		return
	}
	if !bytes.Equal(recomputed[:], bound.CtxHash) {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"ctx_hash does not match the bound context")
	}

	if params.SessionID == "" || bound.SessionID != params.SessionID {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"session id %q does not match expected %q", bound.SessionID, params.SessionID)
	}
	if params.RefundTxHex == "" || !strings.EqualFold(bound.RefundTxHex, params.RefundTxHex) {
		v.fail(engine.CategoryCapsuleBinding, capsulePrefix+"refund transaction does not match expected")
	}
}

func (e *Engine) checkCommitment(ctx context.Context, v *verification, pkg *vte.Package) {
	proof := pkg.Proofs.Commitment
	switch {
	case proof == nil || len(proof.Proof) == 0:
		v.fail(engine.CategoryCommitmentProof, commitmentPrefix+"missing commitment proof")
	case e.commitment == nil:
		v.fail(engine.CategoryCommitmentProof, commitmentPrefix+"no commitment verifier configured")
	default:
		if err := e.commitment.VerifyCommitment(ctx, proof, pkg.Public, pkg.Context.CtxHash); err != nil {
			v.fail(engine.CategoryCommitmentProof, commitmentPrefix+"%v", err)
		}
	}
}
