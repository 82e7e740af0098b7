// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package decryptor

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/vte/bridge"
	"github.com/bureau-foundation/vte/lib/beacon"
	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/nativeengine"
	"github.com/bureau-foundation/vte/lib/vte"
	"github.com/bureau-foundation/vte/lib/vte/vtetest"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type stubEngine struct {
	plaintext string
	err       error
	calls     []engine.DecryptParams
}

func (s *stubEngine) Decrypt(ctx context.Context, params engine.DecryptParams) (engine.DecryptResult, error) {
	s.calls = append(s.calls, params)
	return engine.DecryptResult{PlaintextBase64: s.plaintext}, s.err
}

type stubBeacon struct {
	latest uint64
	info   beacon.ChainInfo
	err    error
}

func (s *stubBeacon) Info(ctx context.Context, chainHashHex string) (beacon.ChainInfo, error) {
	return s.info, s.err
}

func (s *stubBeacon) Latest(ctx context.Context, chainHashHex string) (beacon.Beacon, error) {
	return beacon.Beacon{Round: s.latest}, s.err
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		text    string
		utf8    bool
	}{
		{"ascii", []byte("meet at dawn"), "meet at dawn", true},
		{"multibyte", []byte("naïve ☕"), "naïve ☕", true},
		{"empty", []byte{}, "", true},
		{"invalid utf8", []byte{0xde, 0xad, 0xbe, 0xef}, "deadbeef", false},
		{"mostly text", []byte{'o', 'k', 0xff}, "6f6bff", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			plaintext := Render(test.payload)
			if plaintext.Text != test.text || plaintext.UTF8 != test.utf8 {
				t.Errorf("Render = (%q, %v), want (%q, %v)", plaintext.Text, plaintext.UTF8, test.text, test.utf8)
			}
		})
	}
}

func TestDecrypt(t *testing.T) {
	fixture := vtetest.New(t)
	stub := &stubEngine{plaintext: codec.BytesToBase64([]byte("meet at dawn"))}

	plaintext, err := New(stub, Options{}).Decrypt(context.Background(), fixture.JSON, []string{"https://relay.example"})
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext.Text != "meet at dawn" || !plaintext.UTF8 {
		t.Errorf("plaintext = %+v", plaintext)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(stub.calls))
	}
	if string(stub.calls[0].Package) != string(fixture.JSON) {
		t.Error("engine did not receive the package unmodified")
	}
	if !slices.Equal(stub.calls[0].Endpoints, []string{"https://relay.example"}) {
		t.Errorf("Endpoints = %v", stub.calls[0].Endpoints)
	}
}

func TestDecryptDefaultsToPackageEndpoints(t *testing.T) {
	fixture := vtetest.New(t)
	stub := &stubEngine{plaintext: codec.BytesToBase64([]byte{0xff, 0xfe})}

	plaintext, err := New(stub, Options{}).Decrypt(context.Background(), fixture.JSON, nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext.UTF8 || plaintext.Text != "fffe" {
		t.Errorf("plaintext = (utf8 %v, %q), want (false, fffe)", plaintext.UTF8, plaintext.Text)
	}
	if !slices.Equal(stub.calls[0].Endpoints, fixture.Package.NetworkID.DrandEndpoints) {
		t.Errorf("Endpoints = %v, want the package's", stub.calls[0].Endpoints)
	}

	bare := fixture.Mutate(t, func(p *vte.Package) { p.NetworkID.DrandEndpoints = nil })
	if _, err := New(stub, Options{}).Decrypt(context.Background(), bare, nil); !errors.Is(err, beacon.ErrNoEndpoints) {
		t.Errorf("Decrypt without endpoints: error = %v, want ErrNoEndpoints", err)
	}
}

func TestDecryptMalformedPackageSkipsEngine(t *testing.T) {
	stub := &stubEngine{}
	_, err := New(stub, Options{}).Decrypt(context.Background(), []byte(`not json`), []string{"https://api.drand.sh"})
	if !errors.Is(err, vte.ErrMalformedPackage) {
		t.Fatalf("error = %v, want ErrMalformedPackage", err)
	}
	if len(stub.calls) != 0 {
		t.Error("engine called for a malformed package")
	}
}

func TestDecryptBadPlaintextEncoding(t *testing.T) {
	fixture := vtetest.New(t)
	stub := &stubEngine{plaintext: "***"}
	_, err := New(stub, Options{}).Decrypt(context.Background(), fixture.JSON, nil)
	if !errors.Is(err, bridge.ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestDecryptRoundNotReached(t *testing.T) {
	fixture := vtetest.New(t)
	stub := &stubEngine{}
	source := &stubBeacon{latest: 900, info: beacon.ChainInfo{GenesisTime: 1692803367, Period: 3}}

	_, err := New(stub, Options{Beacon: source, Clock: clock.Fake(epoch)}).Decrypt(context.Background(), fixture.JSON, nil)
	var notReached *RoundNotReachedError
	if !errors.As(err, &notReached) {
		t.Fatalf("error = %v, want *RoundNotReachedError", err)
	}
	if !errors.Is(err, ErrRoundNotReached) || !fault.Retryable(err) {
		t.Errorf("error = %v, want retryable ErrRoundNotReached", err)
	}
	if notReached.Round != 1000 || notReached.Latest != 900 {
		t.Errorf("RoundNotReachedError = %+v", notReached)
	}
	if want := time.Unix(1692803367+3000, 0); !notReached.Expected.Equal(want) {
		t.Errorf("Expected = %v, want %v", notReached.Expected, want)
	}
	if len(stub.calls) != 0 {
		t.Error("engine called before the round was published")
	}
}

func TestDecryptRoundPublished(t *testing.T) {
	fixture := vtetest.New(t)
	stub := &stubEngine{plaintext: codec.BytesToBase64([]byte("ok"))}
	source := &stubBeacon{latest: 1000}

	if _, err := New(stub, Options{Beacon: source}).Decrypt(context.Background(), fixture.JSON, nil); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if len(stub.calls) != 1 {
		t.Errorf("engine calls = %d, want 1", len(stub.calls))
	}
}

func TestDecryptBeaconFailure(t *testing.T) {
	fixture := vtetest.New(t)
	source := &stubBeacon{err: beacon.ErrFetch}
	_, err := New(&stubEngine{}, Options{Beacon: source}).Decrypt(context.Background(), fixture.JSON, nil)
	if !errors.Is(err, beacon.ErrFetch) {
		t.Errorf("error = %v, want ErrFetch", err)
	}
}

func TestDecryptNativeEngineUnsupported(t *testing.T) {
	fixture := vtetest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := engine.NewHost(nil)
	nativeengine.New(nativeengine.Options{}).Register(host)
	client := bridge.New(host.Pipe(ctx), bridge.Options{})
	defer client.Close()

	_, err := New(client, Options{}).Decrypt(ctx, fixture.JSON, nil)
	var engineErr *bridge.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("error = %v, want *bridge.EngineError", err)
	}
	if !fault.Is(err, fault.Semantic) {
		t.Errorf("error kind = %q, want semantic", fault.KindOf(err))
	}
}
