// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package beacon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bureau-foundation/vte/lib/fault"
)

const chainHash = "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971"

// fakeDrand serves a single chain with rounds up to latest.
func fakeDrand(t *testing.T, latest uint64) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{chain}/info", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.PathValue("chain") != chainHash {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(ChainInfo{
			PublicKey:   "83cf0f28",
			Period:      3,
			GenesisTime: 1692803367,
			Hash:        chainHash,
			SchemeID:    "bls-unchained-g1-rfc9380",
		})
	})
	mux.HandleFunc("GET /{chain}/public/{round}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		requested := latest
		if value := r.PathValue("round"); value != "latest" {
			var parsed uint64
			if err := json.Unmarshal([]byte(value), &parsed); err != nil {
				http.Error(w, "bad round", http.StatusBadRequest)
				return
			}
			requested = parsed
		}
		if requested > latest {
			http.Error(w, "round in the future", http.StatusTooEarly)
			return
		}
		json.NewEncoder(w).Encode(Beacon{Round: requested, Randomness: "aa", Signature: "bb"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &hits
}

func newClient(t *testing.T, endpoints ...string) *Client {
	t.Helper()
	client, err := NewClient(endpoints, Options{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestInfoSchedule(t *testing.T) {
	server, _ := fakeDrand(t, 1000)
	client := newClient(t, server.URL+"/")

	info, err := client.Info(context.Background(), chainHash)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	schedule := info.Schedule()
	if schedule.GenesisTime != 1692803367 || schedule.Period != 3 {
		t.Errorf("Schedule = %+v, want quicknet parameters", schedule)
	}
}

func TestInfoChainMismatch(t *testing.T) {
	impostor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChainInfo{Period: 30, GenesisTime: 1595431050, Hash: strings.Repeat("00", 32)})
	}))
	defer impostor.Close()
	honest, hits := fakeDrand(t, 1000)

	client := newClient(t, impostor.URL, honest.URL)
	_, err := client.Info(context.Background(), chainHash)
	if !errors.Is(err, ErrChainMismatch) {
		t.Fatalf("Info error = %v, want ErrChainMismatch", err)
	}
	if hits.Load() != 0 {
		t.Error("client fell through to the next endpoint after a chain mismatch")
	}
}

func TestFailoverToSecondEndpoint(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer broken.Close()
	healthy, hits := fakeDrand(t, 1234)

	client := newClient(t, broken.URL, healthy.URL)
	latest, err := client.Latest(context.Background(), chainHash)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Round != 1234 {
		t.Errorf("Round = %d, want 1234", latest.Round)
	}
	if hits.Load() != 1 {
		t.Errorf("healthy endpoint hits = %d, want 1", hits.Load())
	}
}

func TestAllEndpointsFailIsRetryable(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer broken.Close()

	client := newClient(t, broken.URL)
	_, err := client.Latest(context.Background(), chainHash)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Latest error = %v, want ErrFetch", err)
	}
	if !fault.Retryable(err) {
		t.Error("fetch failure not retryable")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q does not mention the status", err)
	}
}

func TestRoundNotPublished(t *testing.T) {
	server, _ := fakeDrand(t, 1000)
	client := newClient(t, server.URL)

	beacon, err := client.Round(context.Background(), chainHash, 999)
	if err != nil {
		t.Fatalf("Round(999): %v", err)
	}
	if beacon.Round != 999 {
		t.Errorf("Round = %d, want 999", beacon.Round)
	}

	_, err = client.Round(context.Background(), chainHash, 1001)
	if !errors.Is(err, ErrRoundNotPublished) {
		t.Fatalf("Round(1001) error = %v, want ErrRoundNotPublished", err)
	}
	if !fault.Retryable(err) {
		t.Error("not-yet-published round not retryable")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(nil, Options{}); !errors.Is(err, ErrNoEndpoints) {
		t.Errorf("NewClient(nil) = %v, want ErrNoEndpoints", err)
	}
	for _, endpoint := range []string{"api.drand.sh", "ftp://api.drand.sh", "https://"} {
		if _, err := NewClient([]string{endpoint}, Options{}); !fault.Is(err, fault.Validation) {
			t.Errorf("NewClient(%q) = %v, want validation error", endpoint, err)
		}
	}
}
