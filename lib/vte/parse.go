// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vte

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/vte/lib/fault"
)

// ErrMalformedPackage is returned by Parse for any structural defect.
var ErrMalformedPackage = fault.New(fault.Validation, "malformed package")

// Parse decodes and structurally validates a package. Unknown fields
// are ignored. Binary fields must be valid base64, round must be a
// non-negative integer, every required group must be present, and the
// chain hash must be exactly ChainHashSize bytes.
func Parse(data []byte) (*Package, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedPackage)
	}

	var pkg Package
	if err := json.Unmarshal(trimmed, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
	}
	if err := pkg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
	}
	return &pkg, nil
}

func (p *Package) validate() error {
	switch {
	case p.NetworkID == nil:
		return missing("network_id")
	case p.Capsule == nil:
		return missing("capsule")
	case p.Context == nil:
		return missing("context")
	case p.Public == nil:
		return missing("public")
	case p.Proofs == nil:
		return missing("proofs")
	}

	if len(p.NetworkID.ChainHash) != ChainHashSize {
		return fmt.Errorf("network_id.chain_hash is %d bytes, want %d", len(p.NetworkID.ChainHash), ChainHashSize)
	}
	if p.NetworkID.CiphertextFormatID == "" {
		return missing("network_id.ciphertext_format_id")
	}
	if len(p.Capsule.Data) == 0 {
		return missing("capsule.data")
	}
	if len(p.Context.CtxHash) != sha256Size {
		return fmt.Errorf("context.ctx_hash is %d bytes, want %d", len(p.Context.CtxHash), sha256Size)
	}
	if len(p.Public.R2) == 0 {
		return missing("public.r2")
	}
	if len(p.Public.Commitment) == 0 {
		return missing("public.commitment")
	}
	if schnorr := p.Proofs.Schnorr; schnorr != nil && len(schnorr.BindFields) == 0 {
		return missing("proofs.schnorr.bind_fields")
	}
	return nil
}

const sha256Size = 32

func missing(field string) error {
	return fmt.Errorf("missing required field %s", field)
}
