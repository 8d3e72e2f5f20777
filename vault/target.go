// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// Target selects the vault daemon endpoint: either a filesystem socket
// path or a host/port pair, never both.
type Target struct {
	// SocketPath is the Unix socket path of the daemon.
	SocketPath string

	// Host and Port select a TCP connection instead.
	Host string
	Port int
}

// DefaultSocketPath returns the daemon's default socket path,
// ~/.sanctum/vault.sock.
func DefaultSocketPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".sanctum", "vault.sock"), nil
}

// isZero reports whether no endpoint is configured at all.
func (t Target) isZero() bool {
	return t.SocketPath == "" && t.Host == "" && t.Port == 0
}

// validate checks that exactly one endpoint kind is configured.
func (t Target) validate() error {
	hasSocket := t.SocketPath != ""
	hasTCP := t.Host != "" || t.Port != 0
	switch {
	case hasSocket && hasTCP:
		return fmt.Errorf("vault: target has both a socket path and a host/port")
	case !hasSocket && !hasTCP:
		return fmt.Errorf("vault: target has no endpoint")
	case hasTCP && (t.Host == "" || t.Port == 0):
		return fmt.Errorf("vault: TCP target requires both host and port")
	}
	return nil
}

// network returns the net.Dial network for this target.
func (t Target) network() string {
	if t.SocketPath != "" {
		return "unix"
	}
	return "tcp"
}

// address returns the net.Dial address for this target.
func (t Target) address() string {
	if t.SocketPath != "" {
		return t.SocketPath
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) String() string {
	return t.address()
}
