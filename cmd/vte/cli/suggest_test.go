// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1}, // substitution
		{"abc", "ab", 1},  // deletion
		{"ab", "abc", 1},  // insertion
		{"abc", "bac", 2}, // transposition (counted as 2 edits)
		{"kitten", "sitting", 3},
		{"verify", "verfiy", 2},
		{"decrypt", "decrpt", 1},
	}

	for _, test := range tests {
		t.Run(test.a+"->"+test.b, func(t *testing.T) {
			got := levenshtein(test.a, test.b)
			if got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "round"}, {Name: "verify"}, {Name: "generate"}}

	if got := suggestCommand("verfy", commands); got != "verify" {
		t.Errorf("suggestCommand(verfy) = %q, want verify", got)
	}
	if got := suggestCommand("xxxxxxxxxx", commands); got != "" {
		t.Errorf("suggestCommand(xxxxxxxxxx) = %q, want empty", got)
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.StringP("session", "s", "", "session id")
	flagSet.String("refund-tx", "", "refund transaction")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--sesion", "x"}, "--session"},
		{[]string{"-s", "x", "--refnd-tx=ab"}, "--refund-tx"},
		{[]string{"--session", "x", "--zzzzzzzzzz"}, ""},
		{[]string{"plain"}, ""},
	}
	for _, test := range tests {
		if got := suggestFlag(test.args, flagSet); got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
