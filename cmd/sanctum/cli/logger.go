// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI commands. When
// stderr is a terminal it uses slog.TextHandler for human-readable
// output; when stderr is piped or redirected (scripts, CI) it switches
// to slog.JSONHandler for machine-parseable output.
//
// verbose lowers the level to Debug, which exposes per-request protocol
// events from the session engine.
func NewCommandLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// ReadPassphrase prompts on stderr and reads a passphrase from stdin
// without echo when stdin is a terminal. Piped stdin falls back to a
// plain line read so scripts can supply the passphrase.
func ReadPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		os.Stderr.WriteString(prompt)
		defer os.Stderr.WriteString("\n")
		line, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(line), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
