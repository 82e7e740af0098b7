// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package beacon is a read-only client for the drand HTTP API.
//
// Three endpoints are used, each relative to a base URL and a chain
// hash in hex:
//
//	GET /{chain}/info            chain parameters (genesis, period, key)
//	GET /{chain}/public/latest   the most recent published round
//	GET /{chain}/public/{round}  a specific round, once published
//
// A Client holds an ordered endpoint list and tries each in turn until
// one answers. Fetch failures are network errors and retryable; a
// chain info document whose hash differs from the requested chain is
// never retried on another endpoint.
package beacon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/netutil"
	"github.com/bureau-foundation/vte/lib/round"
)

var (
	// ErrNoEndpoints is returned when a client has no endpoints to try.
	ErrNoEndpoints = fault.New(fault.Validation, "no beacon endpoints configured")

	// ErrFetch wraps the last failure after every endpoint failed.
	ErrFetch = fault.New(fault.Network, "beacon fetch failed")

	// ErrRoundNotPublished is returned when every endpoint reports the
	// requested round as not yet available.
	ErrRoundNotPublished = fault.New(fault.Network, "beacon round not yet published")

	// ErrChainMismatch is returned when an endpoint serves a different
	// chain than the one requested.
	ErrChainMismatch = fault.New(fault.Semantic, "beacon chain hash mismatch")
)

// DefaultEndpoint is the public drand API.
const DefaultEndpoint = "https://api.drand.sh"

// DefaultTimeout bounds each HTTP request.
const DefaultTimeout = 10 * time.Second

// ChainInfo is a beacon network's published parameters.
type ChainInfo struct {
	PublicKey   string `json:"public_key"`
	Period      int64  `json:"period"`
	GenesisTime int64  `json:"genesis_time"`
	Hash        string `json:"hash"`
	GroupHash   string `json:"groupHash,omitempty"`
	SchemeID    string `json:"schemeID,omitempty"`
	Metadata    struct {
		BeaconID string `json:"beaconID,omitempty"`
	} `json:"metadata"`
}

// Schedule returns the chain's round schedule.
func (i ChainInfo) Schedule() round.Schedule {
	return round.Schedule{GenesisTime: i.GenesisTime, Period: i.Period}
}

// Beacon is one published round.
type Beacon struct {
	Round             uint64 `json:"round"`
	Randomness        string `json:"randomness"`
	Signature         string `json:"signature"`
	PreviousSignature string `json:"previous_signature,omitempty"`
}

// Options configures a Client.
type Options struct {
	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client fetches beacon data from an ordered list of endpoints.
type Client struct {
	endpoints  []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a client for endpoints, tried in order. Endpoints
// must be absolute http or https URLs.
func NewClient(endpoints []string, options Options) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	cleaned := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		parsed, err := url.Parse(endpoint)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fault.New(fault.Validation, fmt.Sprintf("invalid beacon endpoint %q", endpoint))
		}
		cleaned = append(cleaned, strings.TrimRight(endpoint, "/"))
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Client{endpoints: cleaned, httpClient: options.HTTPClient, logger: options.Logger}, nil
}

// Endpoints returns the client's endpoints in failover order.
func (c *Client) Endpoints() []string {
	return append([]string(nil), c.endpoints...)
}

// Info fetches chain parameters. The returned info's hash must equal
// chainHashHex (case-insensitively) and its period must be positive.
func (c *Client) Info(ctx context.Context, chainHashHex string) (ChainInfo, error) {
	var info ChainInfo
	err := c.fetch(ctx, chainHashHex+"/info", &info, false, func() error {
		if !strings.EqualFold(info.Hash, chainHashHex) {
			return fmt.Errorf("%w: requested %s, endpoint serves %s", ErrChainMismatch, chainHashHex, info.Hash)
		}
		return info.Schedule().Validate()
	})
	return info, err
}

// Latest fetches the most recently published round.
func (c *Client) Latest(ctx context.Context, chainHashHex string) (Beacon, error) {
	var beacon Beacon
	err := c.fetch(ctx, chainHashHex+"/public/latest", &beacon, false, nil)
	return beacon, err
}

// Round fetches a specific round. A round that every endpoint reports
// as unavailable fails with ErrRoundNotPublished.
func (c *Client) Round(ctx context.Context, chainHashHex string, number uint64) (Beacon, error) {
	var beacon Beacon
	err := c.fetch(ctx, chainHashHex+"/public/"+strconv.FormatUint(number, 10), &beacon, true, func() error {
		if beacon.Round != number {
			return fault.New(fault.Semantic, fmt.Sprintf("endpoint returned round %d for request %d", beacon.Round, number))
		}
		return nil
	})
	return beacon, err
}

// statusError is a non-200 answer from one endpoint.
type statusError struct {
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%s returned %d", e.url, e.status)
	}
	return fmt.Sprintf("%s returned %d: %s", e.url, e.status, e.body)
}

// fetch GETs path from each endpoint in order, decoding into out, and
// returns after the first success. check, if set, validates the
// decoded document; its failure ends the search. When roundQuery is
// set and every endpoint answers 404 or 425, the result is
// ErrRoundNotPublished.
func (c *Client) fetch(ctx context.Context, path string, out any, roundQuery bool, check func() error) error {
	var lastErr error
	tooEarly := 0
	for _, endpoint := range c.endpoints {
		target := endpoint + "/" + path
		err := c.get(ctx, target, out)
		if err == nil {
			if check != nil {
				return check()
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var status *statusError
		if errors.As(err, &status) && (status.status == http.StatusNotFound || status.status == http.StatusTooEarly) {
			tooEarly++
		}
		c.logger.Debug("beacon endpoint failed", "url", target, "error", err)
		lastErr = err
	}
	if roundQuery && tooEarly == len(c.endpoints) {
		return fmt.Errorf("%w: %s", ErrRoundNotPublished, path)
	}
	return fmt.Errorf("%w: %s from %d endpoint(s): %v", ErrFetch, path, len(c.endpoints), lastErr)
}

// get performs one bounded GET and JSON decode.
func (c *Client) get(ctx context.Context, target string, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return &statusError{url: target, status: response.StatusCode, body: netutil.ErrorBody(response.Body)}
	}
	return netutil.DecodeResponse(response.Body, out)
}
