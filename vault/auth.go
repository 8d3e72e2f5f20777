// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwgale/sanctum-go/wire"
)

// sessionState tracks the authentication lifecycle of a session.
type sessionState int

const (
	stateUnauthenticated sessionState = iota
	stateAuthenticating
	stateAuthenticated
	stateClosed
)

// authenticate runs the challenge-response handshake on a fresh
// connection and returns the server-assigned session id.
//
// The protocol proves possession of the private key without ever
// transmitting it: the client announces the agent name, the daemon
// answers with a session id and a random single-use nonce, the client
// signs the nonce with its Ed25519 key, and the daemon verifies the
// signature against the agent's registered public key.
//
// Any failure is final for this connection: the caller closes the
// transport and no retry happens here.
func authenticate(ctx context.Context, d *dispatcher, agentName string, key ed25519.PrivateKey, timeout time.Duration) (string, error) {
	helloRaw, err := d.call(ctx, "authenticate", map[string]any{
		"agent_name": agentName,
	}, timeout)
	if err != nil {
		return "", err
	}
	var hello wire.AuthResult
	if err := json.Unmarshal(helloRaw, &hello); err != nil {
		return "", fmt.Errorf("decoding authenticate result: %w", err)
	}
	if hello.SessionID == "" || hello.Challenge == "" {
		return "", fmt.Errorf("authenticate result is missing session_id or challenge")
	}

	nonce, err := hex.DecodeString(hello.Challenge)
	if err != nil {
		return "", fmt.Errorf("decoding challenge nonce: %w", err)
	}

	signature := ed25519.Sign(key, nonce)
	publicKey := key.Public().(ed25519.PublicKey)

	confirmRaw, err := d.call(ctx, "challenge_response", map[string]any{
		"session_id": hello.SessionID,
		"signature":  hex.EncodeToString(signature),
		"public_key": hex.EncodeToString(publicKey),
	}, timeout)
	if err != nil {
		return "", err
	}
	var confirm wire.ChallengeResult
	if err := json.Unmarshal(confirmRaw, &confirm); err != nil {
		return "", fmt.Errorf("decoding challenge_response result: %w", err)
	}
	if !confirm.Authenticated {
		return "", &Error{Code: CodeAuthFailed, Message: "authentication not confirmed"}
	}

	return hello.SessionID, nil
}
