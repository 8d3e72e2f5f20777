// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the sanctum CLI.
//
// The central type is [Command]: a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. The tree is assembled in cmd/sanctum/main.go and dispatched
// through [Command.Execute], which handles flag parsing, subcommand
// routing, and help output with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against the known names and
// suggests the closest match.
package cli
