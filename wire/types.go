// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "encoding/json"

// Request is a JSON request from the client to the vault daemon.
type Request struct {
	// ID is the correlation id. The client assigns a fresh id to every
	// request; the daemon echoes it on the matching response. Ids are
	// never reused within a session.
	ID uint64 `json:"id"`

	// Method is the operation name: "authenticate", "challenge_response",
	// "retrieve", "list", "use", or "release_lease".
	Method string `json:"method"`

	// Params carries the method-specific arguments.
	Params map[string]any `json:"params"`
}

// Response is a JSON response from the vault daemon. Exactly one of
// Result or Error is set.
type Response struct {
	// ID echoes the correlation id of the request this response answers.
	ID uint64 `json:"id,omitempty"`

	// Result is the method-specific success payload.
	Result json.RawMessage `json:"result,omitempty"`

	// Error is the failure payload: either an [ErrorBody] object or,
	// from older daemons, a bare JSON string.
	Error json.RawMessage `json:"error,omitempty"`
}

// ErrorBody is the structured error envelope returned by the daemon.
// Code is drawn from a fixed enumeration; the remaining fields are
// diagnostic context forwarded to the caller unchanged.
type ErrorBody struct {
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Detail     string         `json:"detail,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
	DocsURL    string         `json:"docs_url,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// AuthResult is the result of the "authenticate" method: the opening
// move of the challenge-response handshake.
type AuthResult struct {
	// SessionID identifies the in-progress session. Sent back with the
	// challenge response and implicitly bound to every later call.
	SessionID string `json:"session_id"`

	// Challenge is the hex-encoded random nonce to sign. Server-chosen
	// and single-use per connection.
	Challenge string `json:"challenge"`
}

// ChallengeResult is the result of the "challenge_response" method.
type ChallengeResult struct {
	Authenticated bool `json:"authenticated"`
}

// RetrieveResult is the result of the "retrieve" method.
type RetrieveResult struct {
	// LeaseID is the server-assigned identifier for the access lease
	// created by this retrieval.
	LeaseID string `json:"lease_id"`

	// Value is the hex-encoded credential value.
	Value string `json:"value"`

	// TTL is the lease time-to-live in seconds, when the daemon reports it.
	TTL int `json:"ttl,omitempty"`
}

// Credential describes one credential the agent can access, as returned
// by the "list" method.
type Credential struct {
	// Path is the hierarchical credential path (e.g. "openai/api_key").
	Path string `json:"path"`

	// Tags are optional labels attached to the credential server-side.
	Tags []string `json:"tags,omitempty"`
}

// ListResult is the result of the "list" method.
type ListResult struct {
	Credentials []Credential `json:"credentials"`
}
