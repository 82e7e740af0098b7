// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHexToBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "empty", input: "", want: []byte{}},
		{name: "lowercase", input: "00ff10", want: []byte{0x00, 0xff, 0x10}},
		{name: "uppercase", input: "ABCDEF", want: []byte{0xab, 0xcd, 0xef}},
		{name: "odd length", input: "abc", wantErr: true},
		{name: "non-hex", input: "zz", wantErr: true},
		{name: "prefixed", input: "0x00", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := HexToBytes(test.input)
			if test.wantErr {
				if !errors.Is(err, ErrInvalidEncoding) {
					t.Fatalf("HexToBytes(%q) error = %v, want ErrInvalidEncoding", test.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("HexToBytes(%q): %v", test.input, err)
			}
			if !bytes.Equal(got, test.want) {
				t.Errorf("HexToBytes(%q) = %x, want %x", test.input, got, test.want)
			}
		})
	}
}

func TestBytesToHexIsLowercase(t *testing.T) {
	if got := BytesToHex([]byte{0xAB, 0x0C}); got != "ab0c" {
		t.Errorf("BytesToHex = %q, want %q", got, "ab0c")
	}
}

func TestBase64ToBytesRejectsGarbage(t *testing.T) {
	for _, input := range []string{"!!!!", "abc", "YQ"} {
		if _, err := Base64ToBytes(input); !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("Base64ToBytes(%q) error = %v, want ErrInvalidEncoding", input, err)
		}
	}
}

func TestCrossEncodingInverse(t *testing.T) {
	// Quicknet chain hash in both representations.
	const chainHex = "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971"

	raw, err := HexToBytes(chainHex)
	if err != nil {
		t.Fatalf("HexToBytes: %v", err)
	}
	back, err := Base64ToBytes(BytesToBase64(raw))
	if err != nil {
		t.Fatalf("Base64ToBytes: %v", err)
	}
	if BytesToHex(back) != chainHex {
		t.Errorf("hex through base64 = %q, want %q", BytesToHex(back), chainHex)
	}
	if len(back) != 32 {
		t.Errorf("decoded chain hash length = %d, want 32", len(back))
	}

	// Only the canonical encoding decodes.
	for _, encoded := range []string{"AB==", "QQ==\n", "QUI=\r\n", "QU\nI=", "QUI"} {
		if decoded, err := Base64ToBytes(encoded); !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("Base64ToBytes(%q) = (%x, %v), want ErrInvalidEncoding", encoded, decoded, err)
		}
	}
	if decoded, err := Base64ToBytes("AA=="); err != nil || BytesToBase64(decoded) != "AA==" {
		t.Errorf("Base64ToBytes(AA==) = (%x, %v), want 00", decoded, err)
	}
}

func TestPackageFieldConversions(t *testing.T) {
	const chainHex = "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971"

	asBase64, err := HexToBase64(strings.ToUpper(chainHex))
	if err != nil {
		t.Fatalf("HexToBase64: %v", err)
	}
	back, err := Base64ToHex(asBase64)
	if err != nil {
		t.Fatalf("Base64ToHex: %v", err)
	}
	if back != chainHex {
		t.Errorf("Base64ToHex(HexToBase64(x)) = %q, want %q", back, chainHex)
	}

	if _, err := HexToBase64("0"); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("HexToBase64 error = %v, want ErrInvalidEncoding", err)
	}
	if _, err := Base64ToHex("%%"); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("Base64ToHex error = %v, want ErrInvalidEncoding", err)
	}
}
