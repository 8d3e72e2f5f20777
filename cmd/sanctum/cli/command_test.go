// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "sanctum",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "list",
				Run: func(args []string) error {
					called = "list"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"list"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "list" {
		t.Errorf("dispatched to %q, want %q", called, "list")
	}
}

func TestCommand_Execute_PassesPositionalArgs(t *testing.T) {
	var receivedArgs []string

	root := &Command{
		Name: "sanctum",
		Subcommands: []*Command{
			{
				Name: "get",
				Run: func(args []string) error {
					receivedArgs = args
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"get", "svc/api-key"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "svc/api-key" {
		t.Errorf("args = %v, want [svc/api-key]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var socketPath string
	var target string

	command := &Command{
		Name: "get",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", "/default.sock", "socket path")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--socket", "/custom.sock", "svc/api-key"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if socketPath != "/custom.sock" {
		t.Errorf("socketPath = %q, want %q", socketPath, "/custom.sock")
	}
	if target != "svc/api-key" {
		t.Errorf("target = %q, want %q", target, "svc/api-key")
	}
}

func TestCommand_Execute_UnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "sanctum",
		Subcommands: []*Command{
			{Name: "release", Run: func([]string) error { return nil }},
			{Name: "keygen", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"relaese"})
	if err == nil {
		t.Fatal("Execute() accepted an unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "release"`) {
		t.Errorf("error = %q, want a suggestion for release", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "get",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flagSet.String("socket", "/default.sock", "socket path")
			flagSet.Int("ttl", 0, "lease ttl seconds")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--sokcet", "/x.sock"})
	if err == nil {
		t.Fatal("Execute() accepted an unknown flag")
	}
	if !strings.Contains(err.Error(), "--socket") {
		t.Errorf("error = %q, want a suggestion for --socket", err)
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	root := &Command{
		Name: "sanctum",
		Subcommands: []*Command{
			{Name: "list", Run: func([]string) error { return nil }},
		},
	}

	if err := root.Execute(nil); err == nil {
		t.Fatal("Execute() with no args succeeded, want subcommand-required error")
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	root := &Command{
		Name:    "sanctum",
		Summary: "credential vault client",
		Subcommands: []*Command{
			{Name: "get", Summary: "retrieve a credential value"},
			{Name: "keygen", Summary: "generate an agent signing key"},
		},
		Examples: []Example{
			{Description: "fetch a credential", Command: "sanctum get svc/api-key"},
		},
	}

	var out bytes.Buffer
	root.PrintHelp(&out)
	help := out.String()

	for _, want := range []string{"credential vault client", "get", "keygen", "sanctum get svc/api-key"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestCommand_Execute_HelpFlagIsNotAnError(t *testing.T) {
	root := &Command{
		Name: "sanctum",
		Subcommands: []*Command{
			{Name: "list", Run: func([]string) error { return nil }},
		},
	}
	if err := root.Execute([]string{"--help"}); err != nil {
		t.Errorf("Execute(--help) error: %v", err)
	}
}
