// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/vte/cmd/vte/cli"
	"github.com/bureau-foundation/vte/decryptor"
	"github.com/bureau-foundation/vte/lib/beacon"
	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/config"
	"github.com/bureau-foundation/vte/lib/secret"
	"github.com/bureau-foundation/vte/lib/version"
	"github.com/bureau-foundation/vte/lib/vte"
	"github.com/bureau-foundation/vte/lib/vte/vtetest"
	"github.com/bureau-foundation/vte/verifier"
)

const testGenesis = 1692803367

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// nativeDefaults makes runtimeFlags fall back to the built-in native
// engine configuration.
func nativeDefaults(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
}

// drandServer serves chain info for any chain and the given latest
// round.
func drandServer(t *testing.T, latest uint64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{chain}/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(beacon.ChainInfo{GenesisTime: testGenesis, Period: 3, Hash: r.PathValue("chain")})
	})
	mux.HandleFunc("GET /{chain}/public/latest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(beacon.Beacon{Round: latest})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *cli.ExitError", err)
	}
	if exitErr.Code != code {
		t.Fatalf("exit code = %d, want %d", exitErr.Code, code)
	}
}

func TestRoundCommand(t *testing.T) {
	nativeDefaults(t)
	server := drandServer(t, 0)
	clk := clock.Fake(time.Unix(testGenesis+100, 0))

	params := &roundParams{
		Endpoints: []string{server.URL},
		Unlock:    time.Unix(testGenesis+3000, 0).UTC().Format(time.RFC3339),
	}
	params.OutputJSON = true

	var output bytes.Buffer
	if err := runRound(context.Background(), params, clk, &output, testLogger); err != nil {
		t.Fatalf("runRound: %v", err)
	}
	var result roundOutput
	if err := json.Unmarshal(output.Bytes(), &result); err != nil {
		t.Fatalf("decoding output %q: %v", output.String(), err)
	}
	if result.Round != 1000 {
		t.Errorf("Round = %d, want 1000", result.Round)
	}
	if result.CurrentRound != 33 {
		t.Errorf("CurrentRound = %d, want 33", result.CurrentRound)
	}
	if result.ChainHash != vte.QuicknetChainHash {
		t.Errorf("ChainHash = %s, want the configured default", result.ChainHash)
	}
	if result.Advisory != "" {
		t.Errorf("Advisory = %q, want none", result.Advisory)
	}
}

func TestRoundCommandShortLeadTime(t *testing.T) {
	nativeDefaults(t)
	server := drandServer(t, 0)
	clk := clock.Fake(time.Unix(testGenesis+100, 0))

	params := &roundParams{Endpoints: []string{server.URL}, In: 4 * time.Second}
	var output bytes.Buffer
	if err := runRound(context.Background(), params, clk, &output, testLogger); err != nil {
		t.Fatalf("runRound: %v", err)
	}
	if !strings.Contains(output.String(), "lead_time_too_short") {
		t.Errorf("output missing advisory:\n%s", output.String())
	}
}

func TestRoundCommandInputErrors(t *testing.T) {
	nativeDefaults(t)
	clk := clock.Fake(time.Unix(testGenesis, 0))
	tests := []struct {
		name   string
		params roundParams
		want   string
	}{
		{"neither", roundParams{}, "one of --unlock or --in"},
		{"both", roundParams{Unlock: "2026-01-01T00:00:00Z", In: time.Hour}, "exclusive"},
		{"bad time", roundParams{Unlock: "tomorrow"}, "--unlock"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := runRound(context.Background(), &test.params, clk, io.Discard, testLogger)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("runRound = %v, want error containing %q", err, test.want)
			}
		})
	}
}

func TestVerifyCommandNativeEngine(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.New(t)

	params := &verifyParams{
		Round:     explicitRound(fixture.Package.Round),
		SessionID: fixture.Package.Context.SessionID,
		RefundTx:  fixture.Package.Context.RefundTxHex,
	}
	var output bytes.Buffer
	err := runVerify(context.Background(), params, fixture.JSON, &output, testLogger)

	// The native engine has no commitment proof verifier, so it never
	// accepts a package outright.
	requireExitCode(t, err, 1)
	text := output.String()
	if !strings.Contains(text, "[  ok] structural") {
		t.Errorf("structural check not reported ok:\n%s", text)
	}
	if !strings.Contains(text, "[FAIL] commitment_proof") {
		t.Errorf("commitment check not reported failed:\n%s", text)
	}
	if !strings.Contains(text, "not verified") {
		t.Errorf("missing verdict:\n%s", text)
	}
}

func TestVerifyCommandJSONStructuralFailure(t *testing.T) {
	nativeDefaults(t)

	params := &verifyParams{Round: explicitRound(1000)}
	params.OutputJSON = true
	var output bytes.Buffer
	err := runVerify(context.Background(), params, []byte(`{"version":`), &output, testLogger)
	requireExitCode(t, err, 1)

	var result verifyOutput
	if err := json.Unmarshal(output.Bytes(), &result); err != nil {
		t.Fatalf("decoding output %q: %v", output.String(), err)
	}
	if result.Verified {
		t.Error("Verified = true for malformed input")
	}
	if result.Checklist.Status(verifier.CheckStructural) != verifier.StatusError {
		t.Errorf("structural = %s, want error", result.Checklist.Status(verifier.CheckStructural))
	}
	if result.Checklist.Status(verifier.CheckNetworkBinding) != verifier.StatusPending {
		t.Errorf("network_binding = %s, want pending", result.Checklist.Status(verifier.CheckNetworkBinding))
	}
}

func TestVerifyCommandRequiresExpectations(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.New(t)

	err := runVerify(context.Background(), &verifyParams{}, fixture.JSON, io.Discard, testLogger)
	if err == nil || !strings.Contains(err.Error(), "--round is required") {
		t.Errorf("runVerify without --round = %v, want a required round error", err)
	}

	params := &verifyParams{Round: explicitRound(fixture.Package.Round)}
	err = runVerify(context.Background(), params, fixture.JSON, io.Discard, testLogger)
	if !errors.Is(err, verifier.ErrMissingExpectation) {
		t.Errorf("runVerify without --session = %v, want ErrMissingExpectation", err)
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("missing expectation reported as a verdict: %v", err)
	}
}

func TestVerifyCommandDefaultsChainToConfig(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.Build(t, vtetest.Params{
		ChainHashHex: "8990e7a9aaed2f2b79c43d7890f5a77042845c088af85050f28a25c13e53625f",
	})

	params := &verifyParams{
		Round:     explicitRound(fixture.Package.Round),
		SessionID: fixture.Package.Context.SessionID,
		RefundTx:  fixture.Package.Context.RefundTxHex,
	}
	var output bytes.Buffer
	err := runVerify(context.Background(), params, fixture.JSON, &output, testLogger)
	requireExitCode(t, err, 1)
	if !strings.Contains(output.String(), "[FAIL] network_binding") {
		t.Errorf("package on another chain passed network binding:\n%s", output.String())
	}
}

func TestVerifyCommandEngineUnavailable(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.New(t)

	params := &verifyParams{
		Round:     explicitRound(fixture.Package.Round),
		SessionID: fixture.Package.Context.SessionID,
		RefundTx:  fixture.Package.Context.RefundTxHex,
	}
	params.Runtime.engineMode = config.EngineSocket
	params.Runtime.socketPath = filepath.Join(t.TempDir(), "missing.sock")
	err := runVerify(context.Background(), params, fixture.JSON, io.Discard, testLogger)
	if err == nil {
		t.Fatal("runVerify succeeded without an engine")
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("engine failure reported as a verdict: %v", err)
	}
}

func TestCapsuleParseFromPackage(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.Build(t, vtetest.Params{Round: 4242})

	params := &capsuleParseParams{FromPackage: true}
	params.OutputJSON = true
	var output bytes.Buffer
	if err := runCapsuleParse(context.Background(), params, fixture.JSON, &output, testLogger); err != nil {
		t.Fatalf("runCapsuleParse: %v", err)
	}
	var result capsuleOutput
	if err := json.Unmarshal(output.Bytes(), &result); err != nil {
		t.Fatalf("decoding output %q: %v", output.String(), err)
	}
	if result.Round != 4242 {
		t.Errorf("Round = %d, want 4242", result.Round)
	}
	if result.ChainHash != vte.QuicknetChainHash {
		t.Errorf("ChainHash = %s, want quicknet", result.ChainHash)
	}
	if len(result.Mask) != 32 || len(result.Tag) != 32 {
		t.Errorf("mask/tag hex lengths = %d/%d, want 32/32", len(result.Mask), len(result.Tag))
	}
}

func TestCapsuleParseRejectsGarbage(t *testing.T) {
	nativeDefaults(t)
	err := runCapsuleParse(context.Background(), &capsuleParseParams{}, []byte("not a capsule"), io.Discard, testLogger)
	if err == nil {
		t.Fatal("runCapsuleParse accepted garbage")
	}
}

func TestCtxHashMatchesPackage(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.New(t)
	packagePath := filepath.Join(t.TempDir(), "package.json")
	if err := os.WriteFile(packagePath, fixture.JSON, 0o600); err != nil {
		t.Fatal(err)
	}

	var output bytes.Buffer
	if err := runCtxHash(context.Background(), &ctxHashParams{Package: packagePath}, &output, testLogger); err != nil {
		t.Fatalf("runCtxHash: %v\n%s", err, output.String())
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if lines[0] != codec.BytesToHex(fixture.Package.Context.CtxHash) {
		t.Errorf("ctx hash = %s, want %x", lines[0], fixture.Package.Context.CtxHash)
	}
	if want := "base64: " + codec.BytesToBase64(fixture.Package.Context.CtxHash); lines[1] != want {
		t.Errorf("second line = %q, want %q", lines[1], want)
	}
	if !strings.Contains(output.String(), "matches package ctx_hash") {
		t.Errorf("missing match confirmation:\n%s", output.String())
	}
}

func TestCtxHashExpect(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.New(t)
	capsuleHash := fixture.Package.CapsuleHash()
	params := &ctxHashParams{
		SessionID:   fixture.Package.Context.SessionID,
		RefundTx:    fixture.Package.Context.RefundTxHex,
		ChainHash:   fixture.Package.ChainHashHex(),
		Round:       fixture.Package.Round,
		CapsuleHash: codec.BytesToHex(capsuleHash[:]),
		Expect:      codec.BytesToBase64(fixture.Package.Context.CtxHash),
	}

	var output bytes.Buffer
	if err := runCtxHash(context.Background(), params, &output, testLogger); err != nil {
		t.Fatalf("runCtxHash: %v\n%s", err, output.String())
	}

	params.Expect = codec.BytesToBase64(make([]byte, 32))
	err := runCtxHash(context.Background(), params, io.Discard, testLogger)
	requireExitCode(t, err, 1)

	params.Expect = "not base64!"
	if err := runCtxHash(context.Background(), params, io.Discard, testLogger); !errors.Is(err, codec.ErrInvalidEncoding) {
		t.Errorf("runCtxHash(bad --expect) = %v, want codec.ErrInvalidEncoding", err)
	}
}

func TestCtxHashMismatch(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.New(t)
	tampered := fixture.Mutate(t, func(pkg *vte.Package) {
		pkg.Context.SessionID = "other-session"
	})
	packagePath := filepath.Join(t.TempDir(), "package.json")
	if err := os.WriteFile(packagePath, tampered, 0o600); err != nil {
		t.Fatal(err)
	}

	var output bytes.Buffer
	err := runCtxHash(context.Background(), &ctxHashParams{Package: packagePath}, &output, testLogger)
	requireExitCode(t, err, 1)
	if !strings.Contains(output.String(), "mismatch") {
		t.Errorf("missing mismatch report:\n%s", output.String())
	}
}

func TestR2PointFromStdin(t *testing.T) {
	nativeDefaults(t)
	scalar := strings.Repeat("00", 31) + "01\n"

	var output bytes.Buffer
	if err := runR2Point(context.Background(), &r2PointParams{}, strings.NewReader(scalar), &output, testLogger); err != nil {
		t.Fatalf("runR2Point: %v", err)
	}
	want := vte.R2FormatCompressed + " 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798\n"
	if output.String() != want {
		t.Errorf("output = %q, want %q", output.String(), want)
	}
}

func TestR2PointRejectsEmptyInput(t *testing.T) {
	nativeDefaults(t)
	err := runR2Point(context.Background(), &r2PointParams{}, strings.NewReader(" \n"), io.Discard, testLogger)
	if !errors.Is(err, secret.ErrEmpty) {
		t.Errorf("runR2Point = %v, want secret.ErrEmpty", err)
	}

	err = runR2Point(context.Background(), &r2PointParams{}, strings.NewReader("0102\n"), io.Discard, testLogger)
	if !errors.Is(err, secret.ErrInvalidHex) {
		t.Errorf("runR2Point(short scalar) = %v, want secret.ErrInvalidHex", err)
	}
}

func TestEngineStatusNative(t *testing.T) {
	nativeDefaults(t)
	params := &engineStatusParams{}

	var output bytes.Buffer
	if err := runEngineStatus(context.Background(), params, &output, testLogger); err != nil {
		t.Fatalf("runEngineStatus: %v", err)
	}
	text := output.String()
	for _, want := range []string{"mode:     native", "state:    ready", "version:  " + version.Info()} {
		if !strings.Contains(text, want) {
			t.Errorf("status output missing %q:\n%s", want, text)
		}
	}
}

func TestDiag(t *testing.T) {
	frame, err := codec.Marshal(map[string]any{"op": "INIT", "id": 7})
	if err != nil {
		t.Fatal(err)
	}

	var output bytes.Buffer
	if err := runDiag(&diagParams{HexInput: true}, []byte(codec.BytesToHex(frame)+"\n"), &output); err != nil {
		t.Fatalf("runDiag: %v", err)
	}
	if !strings.Contains(output.String(), `"op"`) || !strings.Contains(output.String(), `"INIT"`) {
		t.Errorf("diagnostic output = %q, want the op field", output.String())
	}

	if err := runDiag(&diagParams{}, []byte{0xff}, io.Discard); err == nil {
		t.Error("runDiag accepted invalid CBOR")
	}
}

func TestGeneratePlanFromFlags(t *testing.T) {
	params := &generateParams{
		SessionID: "demo-session-123",
		RefundTx:  "0101",
		Endpoints: []string{"https://api.drand.sh"},
		In:        90 * time.Minute,
		Plaintext: "meet at dawn",
		Strategy:  "auto",
	}
	plan, err := params.plan()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.UnlockIn != "1h30m0s" {
		t.Errorf("UnlockIn = %q, want 1h30m0s", plan.UnlockIn)
	}
	if plan.SessionID != "demo-session-123" || plan.Plaintext != "meet at dawn" || plan.Round != nil {
		t.Errorf("plan = %+v", plan)
	}
}

func TestGeneratePlanExplicitRoundZero(t *testing.T) {
	params := &generateParams{SessionID: "demo-session-123", RefundTx: "0101", Plaintext: "x"}
	flagSet := cli.FlagsFromParams("generate", params)
	if err := flagSet.Parse([]string{"--round", "0"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	plan, err := params.plan()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Round == nil || *plan.Round != 0 {
		t.Errorf("Round = %v, want an explicit 0", plan.Round)
	}
}

func TestGenerateNeedsGeneratingEngine(t *testing.T) {
	nativeDefaults(t)
	params := &generateParams{
		SessionID: "demo-session-123",
		RefundTx:  strings.Repeat("01", 32),
		Round:     explicitRound(1000),
		Plaintext: "meet at dawn",
		Strategy:  "auto",
	}

	var output bytes.Buffer
	err := runGenerate(context.Background(), params, clock.Fake(time.Unix(testGenesis, 0)), &output, testLogger)
	if err == nil {
		t.Fatal("native engine generated a package")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("error = %v, want unsupported operation", err)
	}
	if output.Len() != 0 {
		t.Errorf("wrote %d bytes on failure", output.Len())
	}
}

func TestDecryptRoundNotReached(t *testing.T) {
	nativeDefaults(t)
	server := drandServer(t, 10)
	fixture := vtetest.New(t)

	params := &decryptParams{Endpoints: []string{server.URL}}
	err := runDecrypt(context.Background(), params, fixture.JSON, io.Discard, testLogger)

	var notReached *decryptor.RoundNotReachedError
	if !errors.As(err, &notReached) {
		t.Fatalf("error = %v, want *RoundNotReachedError", err)
	}
	if notReached.Latest != 10 || notReached.Round != fixture.Package.Round {
		t.Errorf("RoundNotReachedError = %+v", notReached)
	}
}

func TestDecryptWithoutPreCheckReachesEngine(t *testing.T) {
	nativeDefaults(t)
	fixture := vtetest.New(t)

	params := &decryptParams{NoPreCheck: true, Endpoints: []string{"https://relay.example"}}
	err := runDecrypt(context.Background(), params, fixture.JSON, io.Discard, testLogger)
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Errorf("runDecrypt = %v, want the native engine's unsupported error", err)
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	if err := os.WriteFile(path, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}

	data, err := readInput([]string{path}, strings.NewReader("from stdin"))
	if err != nil || string(data) != "from file" {
		t.Errorf("readInput(file) = %q, %v", data, err)
	}
	data, err = readInput([]string{"-"}, strings.NewReader("from stdin"))
	if err != nil || string(data) != "from stdin" {
		t.Errorf("readInput(-) = %q, %v", data, err)
	}
	if _, err := readInput(nil, strings.NewReader("")); err == nil {
		t.Error("readInput accepted empty stdin")
	}
	if _, err := readInput([]string{"a", "b"}, strings.NewReader("")); err == nil {
		t.Error("readInput accepted two files")
	}
}

func TestRootCommandTree(t *testing.T) {
	root := Root()
	names := map[string]bool{}
	for _, command := range root.Subcommands {
		names[command.Name] = true
	}
	for _, want := range []string{"round", "generate", "verify", "decrypt", "capsule", "engine", "version"} {
		if !names[want] {
			t.Errorf("root is missing %q", want)
		}
	}
}
