// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"testing"
)

func TestNewIsZeroFilled(t *testing.T) {
	buffer, err := New(32)
	if err != nil {
		t.Fatalf("New(32): %v", err)
	}
	defer buffer.Close()

	if buffer.Len() != 32 {
		t.Errorf("Len = %d, want 32", buffer.Len())
	}
	if !bytes.Equal(buffer.Bytes(), make([]byte, 32)) {
		t.Errorf("new buffer = %x, want zeros", buffer.Bytes())
	}
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) succeeded, want error", size)
		}
	}
}

func TestNewFromBytesZeroesSource(t *testing.T) {
	source := bytes.Repeat([]byte{0x07}, 32)

	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if got, want := buffer.Hex(), "0707070707070707070707070707070707070707070707070707070707070707"; got != want {
		t.Errorf("Hex = %s, want %s", got, want)
	}
	if !bytes.Equal(source, make([]byte, 32)) {
		t.Errorf("source = %x after copy, want zeros", source)
	}
}

func TestNewFromBytesEmpty(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Fatal("NewFromBytes(nil) succeeded, want error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	buffer, err := NewFromBytes([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if buffer.data != nil {
		t.Error("data retained after Close")
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestAccessAfterClosePanics(t *testing.T) {
	for name, access := range map[string]func(*Buffer){
		"Bytes": func(b *Buffer) { b.Bytes() },
		"Hex":   func(b *Buffer) { b.Hex() },
	} {
		t.Run(name, func(t *testing.T) {
			buffer, err := New(8)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			buffer.Close()

			defer func() {
				if recover() == nil {
					t.Fatalf("%s after Close did not panic", name)
				}
			}()
			access(buffer)
		})
	}
}
