// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jwgale/sanctum-go/lib/keyfile"
	"github.com/jwgale/sanctum-go/wire"
)

// DefaultCallTimeout bounds each request/response round trip when the
// config does not say otherwise.
const DefaultCallTimeout = 30 * time.Second

// SessionConfig configures a vault session. AgentName is required;
// everything else has a sensible default.
type SessionConfig struct {
	// AgentName is the identity to authenticate as.
	AgentName string

	// SocketPath is the daemon's Unix socket path. Mutually exclusive
	// with Host/Port. When neither is set, connect uses the default
	// socket path (~/.sanctum/vault.sock).
	SocketPath string

	// Host and Port select a TCP connection instead of the Unix socket.
	Host string
	Port int

	// Key is a pre-loaded signing key. When nil, the key is resolved
	// from KeyPath, or from KeyDir (default ~/.sanctum/keys) by agent
	// name, at connect time.
	Key ed25519.PrivateKey

	// KeyPath is an explicit key file path; overrides the KeyDir lookup.
	KeyPath string

	// KeyDir is the directory holding per-agent key files.
	KeyDir string

	// Passphrase decrypts a passphrase-protected key file. With a
	// passphrase set, <agent>.key.enc is preferred over <agent>.key.
	Passphrase string

	// CallTimeout bounds each request/response round trip. Zero means
	// DefaultCallTimeout.
	CallTimeout time.Duration

	// Logger receives debug-level protocol events. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Session is an authenticated channel to the vault daemon. Methods are
// safe for concurrent use: calls from multiple goroutines are
// multiplexed over the one connection, each blocking only on its own
// response.
type Session struct {
	agentName   string
	target      Target
	key         ed25519.PrivateKey
	keyPath     string
	keyDir      string
	passphrase  string
	callTimeout time.Duration
	logger      *slog.Logger
	leases      *leaseTracker

	mu         sync.Mutex
	state      sessionState
	dispatcher *dispatcher
	sessionID  string
}

// NewSession creates an unconnected session. Call Connect (or use
// WithSession) before issuing operations.
func NewSession(config SessionConfig) (*Session, error) {
	if config.AgentName == "" {
		return nil, fmt.Errorf("vault: agent name is required")
	}
	target := Target{SocketPath: config.SocketPath, Host: config.Host, Port: config.Port}
	if !target.isZero() {
		if err := target.validate(); err != nil {
			return nil, err
		}
	}

	callTimeout := config.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		agentName:   config.AgentName,
		target:      target,
		key:         config.Key,
		keyPath:     config.KeyPath,
		keyDir:      config.KeyDir,
		passphrase:  config.Passphrase,
		callTimeout: callTimeout,
		logger:      logger,
		leases:      newLeaseTracker(),
		state:       stateUnauthenticated,
	}, nil
}

// Connect dials the configured target and authenticates. Target
// precedence: the config's endpoint, falling back to the default socket
// path. Fails with ErrAlreadyConnected on a session that is already
// authenticated, and with ErrClosed on a session that has been closed:
// closing is terminal, build a new session to reconnect.
func (s *Session) Connect(ctx context.Context) error {
	return s.connect(ctx, Target{})
}

// ConnectTo is Connect with an explicit target override, taking
// precedence over the configured endpoint.
func (s *Session) ConnectTo(ctx context.Context, target Target) error {
	if err := target.validate(); err != nil {
		return err
	}
	return s.connect(ctx, target)
}

func (s *Session) connect(ctx context.Context, override Target) error {
	s.mu.Lock()
	if s.state == stateClosed {
		// Close is terminal: the lease tracker has been emptied, so a
		// reconnected session would silently leak server-side leases.
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == stateAuthenticated || s.state == stateAuthenticating {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = stateAuthenticating
	s.mu.Unlock()

	err := s.dialAndAuthenticate(ctx, override)
	if err != nil {
		s.mu.Lock()
		if s.state == stateAuthenticating {
			s.state = stateUnauthenticated
		}
		s.mu.Unlock()
	}
	return err
}

func (s *Session) dialAndAuthenticate(ctx context.Context, override Target) error {
	target := override
	if target.isZero() {
		target = s.target
	}
	if target.isZero() {
		socketPath, err := DefaultSocketPath()
		if err != nil {
			return err
		}
		target = Target{SocketPath: socketPath}
	}

	key := s.key
	if key == nil {
		var err error
		key, err = keyfile.Resolve(s.keyPath, s.keyDir, s.agentName, s.passphrase)
		if err != nil {
			return fmt.Errorf("loading signing key for %s: %w", s.agentName, err)
		}
	}

	connection, err := dial(ctx, target)
	if err != nil {
		return err
	}
	d := newDispatcher(connection, s.logger)

	sessionID, err := authenticate(ctx, d, s.agentName, key, s.callTimeout)
	if err != nil {
		d.close()
		return err
	}

	s.mu.Lock()
	if s.state != stateAuthenticating {
		// Close ran while the handshake was in flight.
		s.mu.Unlock()
		d.close()
		return ErrClosed
	}
	s.key = key
	s.dispatcher = d
	s.sessionID = sessionID
	s.state = stateAuthenticated
	s.mu.Unlock()

	s.logger.Debug("vault session authenticated",
		"agent", s.agentName,
		"target", target.String(),
	)
	return nil
}

// active returns the dispatcher and session id of an authenticated
// session, or ErrNotConnected.
func (s *Session) active() (*dispatcher, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return nil, "", ErrClosed
	}
	if s.state != stateAuthenticated || s.dispatcher == nil {
		return nil, "", ErrNotConnected
	}
	return s.dispatcher, s.sessionID, nil
}

// Retrieve fetches a credential value as a UTF-8 string. The lease
// created by the retrieval is tracked and auto-released on Close.
// ttlSeconds requests a specific lease time-to-live; zero accepts the
// server default.
func (s *Session) Retrieve(ctx context.Context, path string, ttlSeconds int) (string, error) {
	_, result, err := s.retrieve(ctx, path, ttlSeconds)
	if err != nil {
		return "", err
	}
	value, err := hex.DecodeString(result.Value)
	if err != nil {
		return "", fmt.Errorf("decoding credential value: %w", err)
	}
	return strings.ToValidUTF8(string(value), "�"), nil
}

// RetrieveRaw is Retrieve without the value decoding: it returns the
// daemon's full structured result, including the lease id and any
// metadata. The lease is tracked exactly as with Retrieve.
func (s *Session) RetrieveRaw(ctx context.Context, path string, ttlSeconds int) (map[string]any, error) {
	raw, _, err := s.retrieve(ctx, path, ttlSeconds)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding retrieve result: %w", err)
	}
	return result, nil
}

func (s *Session) retrieve(ctx context.Context, path string, ttlSeconds int) (json.RawMessage, wire.RetrieveResult, error) {
	d, sessionID, err := s.active()
	if err != nil {
		return nil, wire.RetrieveResult{}, err
	}

	params := map[string]any{"session_id": sessionID, "path": path}
	if ttlSeconds > 0 {
		params["ttl"] = ttlSeconds
	}
	raw, err := d.call(ctx, "retrieve", params, s.callTimeout)
	if err != nil {
		return nil, wire.RetrieveResult{}, err
	}

	var result wire.RetrieveResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, wire.RetrieveResult{}, fmt.Errorf("decoding retrieve result: %w", err)
	}
	s.leases.record(result.LeaseID, path, result.TTL)
	return raw, result, nil
}

// List returns the credentials the agent can access, in the order the
// daemon returned them.
func (s *Session) List(ctx context.Context) ([]wire.Credential, error) {
	d, sessionID, err := s.active()
	if err != nil {
		return nil, err
	}

	raw, err := d.call(ctx, "list", map[string]any{"session_id": sessionID}, s.callTimeout)
	if err != nil {
		return nil, err
	}
	var result wire.ListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding list result: %w", err)
	}
	return result.Credentials, nil
}

// Use executes a credential-dependent operation server-side without
// ever exposing the secret: the daemon applies the credential, runs the
// operation, and discards access immediately, so no lease is created.
// The result mapping is passed through untouched.
func (s *Session) Use(ctx context.Context, path, operation string, params map[string]any) (map[string]any, error) {
	d, sessionID, err := s.active()
	if err != nil {
		return nil, err
	}

	callParams := map[string]any{
		"session_id": sessionID,
		"path":       path,
		"operation":  operation,
	}
	if len(params) > 0 {
		callParams["params"] = params
	}
	raw, err := d.call(ctx, "use", callParams, s.callTimeout)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding use result: %w", err)
	}
	return result, nil
}

// ReleaseLease releases one tracked lease. The local entry is removed
// before the server call, so a failed release is reported but never
// re-tracked; releasing an unknown or already-released id is a no-op.
func (s *Session) ReleaseLease(ctx context.Context, leaseID string) error {
	d, _, err := s.active()
	if err != nil {
		return err
	}
	if !s.leases.remove(leaseID) {
		return nil
	}
	_, err = d.call(ctx, "release_lease", map[string]any{"lease_id": leaseID}, s.callTimeout)
	return err
}

// ForceReleaseLease releases a lease on the server regardless of
// whether this session tracks it. Useful for cleaning up leases issued
// by other sessions, at the cost of the local idempotency guarantee:
// the server decides what an unknown id means.
func (s *Session) ForceReleaseLease(ctx context.Context, leaseID string) error {
	d, _, err := s.active()
	if err != nil {
		return err
	}
	s.leases.remove(leaseID)
	_, err = d.call(ctx, "release_lease", map[string]any{"lease_id": leaseID}, s.callTimeout)
	return err
}

// TrackedLeases returns the ids of the leases the session currently
// tracks.
func (s *Session) TrackedLeases() []string {
	return s.leases.snapshot()
}

// Close releases every tracked lease (best effort: individual release
// failures are collected, and teardown continues past them) and then
// closes the transport. Idempotent: a second Close returns nil and
// performs no further release calls.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	d := s.dispatcher
	s.dispatcher = nil
	s.sessionID = ""
	s.state = stateClosed
	s.mu.Unlock()

	if d == nil {
		return nil
	}

	var errs []error
	for _, leaseID := range s.leases.snapshot() {
		s.leases.remove(leaseID)
		ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
		_, err := d.call(ctx, "release_lease", map[string]any{"lease_id": leaseID}, 0)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("releasing lease %s: %w", leaseID, err))
		}
	}

	if err := d.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WithSession connects a session, runs fn with it, and guarantees Close
// on every exit path. The Close that follows a successful fn reports
// lease-release failures; after a failed fn, the fn error wins and
// teardown errors are dropped.
func WithSession(ctx context.Context, config SessionConfig, fn func(*Session) error) error {
	session, err := NewSession(config)
	if err != nil {
		return err
	}
	if err := session.Connect(ctx); err != nil {
		return err
	}
	defer session.Close()

	if err := fn(session); err != nil {
		return err
	}
	return session.Close()
}
