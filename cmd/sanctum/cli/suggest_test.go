// Copyright 2026 The Sanctum Authors
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
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"kitten", "sitting", 3},
		{"relaese", "release", 2},
		{"keygen", "keygn", 1},
		{"list", "lsit", 2},
	}

	for _, test := range tests {
		got := levenshtein(test.a, test.b)
		if got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "get"},
		{Name: "list"},
		{Name: "use"},
		{Name: "release"},
		{Name: "keygen"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"gte", "get"},
		{"lsit", "list"},
		{"relese", "release"},
		{"keygn", "keygen"},
		{"completely-unrelated", ""},
	}

	for _, test := range tests {
		got := suggestCommand(test.input, commands)
		if got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
		flagSet.String("socket", "", "socket path")
		flagSet.Int("ttl", 0, "lease ttl seconds")
		flagSet.BoolP("verbose", "v", false, "debug logging")
		return flagSet
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--sokcet", "/x.sock"}, "--socket"},
		{[]string{"--tll=60"}, "--ttl"},
		{[]string{"--socket", "/x.sock"}, ""},
		{[]string{"svc/api-key"}, ""},
		{[]string{"--zzzzzzzz"}, ""},
	}

	for _, test := range tests {
		got := suggestFlag(test.args, newFlags())
		if got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
