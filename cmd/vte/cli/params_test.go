// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Name     string        `flag:"name" desc:"the name"`
		Verbose  bool          `flag:"verbose,v" desc:"enable verbose output"`
		Count    int           `flag:"count" desc:"number of items"`
		Round    uint64        `flag:"round" desc:"beacon round"`
		Timeout  time.Duration `flag:"timeout" desc:"request timeout"`
		Tags     []string      `flag:"tags" desc:"tag list"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"--name", "alice",
		"-v",
		"--count", "42",
		"--round", "18446744073709551615",
		"--timeout", "30s",
		"--tags", "a,b,c",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Name != "alice" {
		t.Errorf("Name = %q, want %q", p.Name, "alice")
	}
	if !p.Verbose {
		t.Error("Verbose = false, want true")
	}
	if p.Count != 42 {
		t.Errorf("Count = %d, want 42", p.Count)
	}
	if p.Round != 18446744073709551615 {
		t.Errorf("Round = %d, want max uint64", p.Round)
	}
	if p.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", p.Timeout)
	}
	if strings.Join(p.Tags, ",") != "a,b,c" {
		t.Errorf("Tags = %v, want [a b c]", p.Tags)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Strategy string        `flag:"strategy" default:"auto"`
		PreCheck bool          `flag:"pre-check" default:"true"`
		Budget   int           `flag:"retry-budget" default:"50"`
		Poll     time.Duration `flag:"poll" default:"100ms"`
		Hosts    []string      `flag:"endpoint" default:"https://a.example,https://b.example"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Strategy != "auto" || !p.PreCheck || p.Budget != 50 || p.Poll != 100*time.Millisecond {
		t.Errorf("defaults not applied: %+v", p)
	}
	if len(p.Hosts) != 2 || p.Hosts[1] != "https://b.example" {
		t.Errorf("Hosts = %v, want two endpoints", p.Hosts)
	}
}

func TestBindFlags_InvalidDefault(t *testing.T) {
	type params struct {
		Budget int `flag:"retry-budget" default:"many"`
	}
	err := BindFlags(&params{}, pflag.NewFlagSet("test", pflag.ContinueOnError))
	if err == nil || !strings.Contains(err.Error(), "retry-budget") {
		t.Errorf("BindFlags = %v, want error naming --retry-budget", err)
	}
}

func TestBindFlags_UnsupportedType(t *testing.T) {
	type params struct {
		Ratio float32 `flag:"ratio"`
	}
	err := BindFlags(&params{}, pflag.NewFlagSet("test", pflag.ContinueOnError))
	if err == nil || !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("BindFlags = %v, want unsupported type error", err)
	}
}

// setOnce is a pflag.Value that remembers whether it was set.
type setOnce struct {
	value string
	set   bool
}

func (s *setOnce) String() string { return s.value }
func (s *setOnce) Type() string   { return "string" }
func (s *setOnce) Set(value string) error {
	s.value, s.set = value, true
	return nil
}

func TestBindFlags_Value(t *testing.T) {
	type params struct {
		Mode setOnce `flag:"mode" desc:"mode"`
		Kept setOnce `flag:"kept" desc:"kept" default:"on"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if p.Mode.set {
		t.Error("Mode set before parsing")
	}
	if err := flagSet.Parse([]string{"--mode", ""}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Mode.set || p.Mode.value != "" {
		t.Errorf("Mode = %+v, want set to the empty string", p.Mode)
	}
	if p.Kept.value != "on" {
		t.Errorf("Kept = %q, want the default %q", p.Kept.value, "on")
	}
}

func TestBindFlags_RequiresStructPointer(t *testing.T) {
	if err := BindFlags(struct{}{}, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted a non-pointer")
	}
}

type endpointFlags struct {
	endpoints []string
}

func (e *endpointFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringSliceVar(&e.endpoints, "endpoint", nil, "beacon endpoint")
}

func TestBindFlags_FlagBinder(t *testing.T) {
	type params struct {
		Beacon endpointFlags
		JSONOutput
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--endpoint", "https://api.drand.sh", "--json"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Beacon.endpoints) != 1 {
		t.Errorf("endpoints = %v, want one", p.Beacon.endpoints)
	}
	if !p.OutputJSON {
		t.Error("embedded JSONOutput not bound")
	}
}

func TestWriteJSON_NormalizesNilSlice(t *testing.T) {
	var output bytes.Buffer
	var empty []string
	if err := WriteJSON(&output, normalizeNilSlice(empty)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if strings.TrimSpace(output.String()) != "[]" {
		t.Errorf("output = %q, want []", output.String())
	}

	var disabled JSONOutput
	if done, err := disabled.EmitJSON(map[string]int{"round": 1}); done || err != nil {
		t.Errorf("EmitJSON without --json = (%v, %v), want (false, nil)", done, err)
	}
}
