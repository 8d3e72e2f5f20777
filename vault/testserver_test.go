// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jwgale/sanctum-go/wire"
)

// fakeVault is a minimal in-process vault daemon speaking the framed
// JSON protocol on a Unix socket. It implements just enough of the
// server side to exercise the client engine: challenge-response
// verification against registered keys, retrieval with lease issuance,
// listing, use, and lease release.
type fakeVault struct {
	t        *testing.T
	listener net.Listener

	mu              sync.Mutex
	keys            map[string]ed25519.PublicKey
	secrets         map[string]string
	credentials     []wire.Credential
	denyAck         bool
	failingReleases map[string]bool
	nextSession     int
	nextLease       int
	activeLeases    map[string]string
	released        []string
	useCalls        []string
}

// connState is the per-connection handshake state.
type connState struct {
	agentName     string
	nonce         []byte
	sessionID     string
	authenticated bool
}

func newFakeVault(t *testing.T) *fakeVault {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "vault.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listening on %s: %v", socketPath, err)
	}

	v := &fakeVault{
		t:               t,
		listener:        listener,
		keys:            make(map[string]ed25519.PublicKey),
		secrets:         make(map[string]string),
		failingReleases: make(map[string]bool),
		activeLeases:    make(map[string]string),
	}
	t.Cleanup(func() { listener.Close() })
	go v.serve()
	return v
}

func (v *fakeVault) socketPath() string {
	return v.listener.Addr().String()
}

func (v *fakeVault) registerAgent(name string, key ed25519.PublicKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[name] = key
}

func (v *fakeVault) addSecret(path, value string, tags ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.secrets[path] = value
	v.credentials = append(v.credentials, wire.Credential{Path: path, Tags: tags})
}

func (v *fakeVault) denyAuthentication() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.denyAck = true
}

func (v *fakeVault) failRelease(leaseID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failingReleases[leaseID] = true
}

func (v *fakeVault) releasedLeases() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.released...)
}

func (v *fakeVault) recordedUseCalls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.useCalls...)
}

func (v *fakeVault) activeLeaseCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.activeLeases)
}

func (v *fakeVault) serve() {
	for {
		conn, err := v.listener.Accept()
		if err != nil {
			return
		}
		go v.handleConnection(conn)
	}
}

func (v *fakeVault) handleConnection(conn net.Conn) {
	defer conn.Close()
	state := &connState{}
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		var request wire.Request
		if err := json.Unmarshal(payload, &request); err != nil {
			return
		}
		response := v.handleRequest(state, request)
		response.ID = request.ID
		out, err := json.Marshal(response)
		if err != nil {
			return
		}
		if err := wire.WriteFrame(conn, out); err != nil {
			return
		}
	}
}

func resultResponse(result any) wire.Response {
	data, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	return wire.Response{Result: data}
}

func errorResponse(body wire.ErrorBody) wire.Response {
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return wire.Response{Error: data}
}

func (v *fakeVault) handleRequest(state *connState, request wire.Request) wire.Response {
	v.mu.Lock()
	defer v.mu.Unlock()

	stringParam := func(name string) string {
		value, _ := request.Params[name].(string)
		return value
	}

	switch request.Method {
	case "authenticate":
		state.agentName = stringParam("agent_name")
		state.nonce = make([]byte, 32)
		rand.Read(state.nonce)
		v.nextSession++
		state.sessionID = fmt.Sprintf("sess-%d", v.nextSession)
		return resultResponse(map[string]any{
			"session_id": state.sessionID,
			"challenge":  hex.EncodeToString(state.nonce),
		})

	case "challenge_response":
		signature, err := hex.DecodeString(stringParam("signature"))
		if err != nil || stringParam("session_id") != state.sessionID {
			return errorResponse(wire.ErrorBody{Code: "AUTH_FAILED", Message: "malformed challenge response"})
		}
		key, known := v.keys[state.agentName]
		if !known || !ed25519.Verify(key, state.nonce, signature) {
			return errorResponse(wire.ErrorBody{
				Code:    "AUTH_FAILED",
				Message: "signature verification failed",
				Detail:  "the signature does not match the registered public key for " + state.agentName,
			})
		}
		if v.denyAck {
			return resultResponse(map[string]any{"authenticated": false})
		}
		state.authenticated = true
		return resultResponse(map[string]any{"authenticated": true})

	case "retrieve":
		if !state.authenticated {
			return errorResponse(wire.ErrorBody{Code: "SESSION_EXPIRED", Message: "no authenticated session"})
		}
		path := stringParam("path")
		value, exists := v.secrets[path]
		if !exists {
			return errorResponse(wire.ErrorBody{
				Code:       "CREDENTIAL_NOT_FOUND",
				Message:    "no credential at " + path,
				Suggestion: "run list to see accessible credentials",
				DocsURL:    "https://sanctum.dev/docs/errors#credential-not-found",
				Context:    map[string]any{"path": path},
			})
		}
		v.nextLease++
		leaseID := fmt.Sprintf("lease-%d", v.nextLease)
		v.activeLeases[leaseID] = path
		return resultResponse(map[string]any{
			"lease_id": leaseID,
			"value":    hex.EncodeToString([]byte(value)),
			"ttl":      300,
		})

	case "list":
		if !state.authenticated {
			return errorResponse(wire.ErrorBody{Code: "SESSION_EXPIRED", Message: "no authenticated session"})
		}
		return resultResponse(map[string]any{"credentials": v.credentials})

	case "use":
		if !state.authenticated {
			return errorResponse(wire.ErrorBody{Code: "SESSION_EXPIRED", Message: "no authenticated session"})
		}
		v.useCalls = append(v.useCalls, stringParam("path")+":"+stringParam("operation"))
		return resultResponse(map[string]any{
			"status":    "ok",
			"operation": stringParam("operation"),
		})

	case "release_lease":
		leaseID := stringParam("lease_id")
		if v.failingReleases[leaseID] {
			return errorResponse(wire.ErrorBody{Code: "LEASE_EXPIRED", Message: "lease already expired"})
		}
		delete(v.activeLeases, leaseID)
		v.released = append(v.released, leaseID)
		return resultResponse(map[string]any{})

	default:
		return errorResponse(wire.ErrorBody{Code: "INTERNAL_ERROR", Message: "unknown method " + request.Method})
	}
}
