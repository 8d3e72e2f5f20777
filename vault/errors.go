// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwgale/sanctum-go/wire"
)

// Code is an error code from the vault daemon's fixed enumeration.
type Code string

// Error codes returned by the vault daemon. Unrecognized codes pass
// through unchanged on the [Error] they arrive with.
const (
	CodeAuthFailed         Code = "AUTH_FAILED"
	CodeAccessDenied       Code = "ACCESS_DENIED"
	CodeCredentialNotFound Code = "CREDENTIAL_NOT_FOUND"
	CodeVaultLocked        Code = "VAULT_LOCKED"
	CodeLeaseExpired       Code = "LEASE_EXPIRED"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeSessionExpired     Code = "SESSION_EXPIRED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error represents a structured failure reported by the vault daemon.
// Callers use errors.As to extract the structured information:
//
//	var vaultErr *vault.Error
//	if errors.As(err, &vaultErr) {
//	    if vaultErr.Code == vault.CodeAccessDenied { ... }
//	}
//
// or the [IsCode] shorthand for a single-code check.
type Error struct {
	// Code is the daemon's error code. Codes outside the documented
	// enumeration are preserved verbatim.
	Code Code

	// Message is the human-readable error description.
	Message string

	// Detail is additional diagnostic text, when the daemon supplied it.
	Detail string

	// Suggestion is an optional remediation hint.
	Suggestion string

	// DocsURL is an optional documentation reference.
	DocsURL string

	// Context is an optional structured mapping of extra diagnostic
	// fields, forwarded unchanged.
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Code == "" {
		return "vault: " + e.Message
	}
	return fmt.Sprintf("vault: %s: %s", e.Code, e.Message)
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code Code) bool {
	var vaultErr *Error
	if errors.As(err, &vaultErr) {
		return vaultErr.Code == code
	}
	return false
}

// errorFromWire translates a response error payload into a typed
// *Error. The mapping is total: legacy bare-string errors, structured
// envelopes with unrecognized codes, and undecodable payloads all
// produce some *Error rather than a panic or a dropped failure.
func errorFromWire(raw json.RawMessage) *Error {
	// Older daemons report errors as a bare JSON string.
	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return &Error{Message: legacy}
	}

	var body wire.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return &Error{
			Code:    CodeInternal,
			Message: fmt.Sprintf("undecodable error payload: %s", raw),
		}
	}

	code := Code(body.Code)
	if code == "" {
		code = CodeInternal
	}
	message := body.Message
	if message == "" {
		message = "unknown error"
	}
	return &Error{
		Code:       code,
		Message:    message,
		Detail:     body.Detail,
		Suggestion: body.Suggestion,
		DocsURL:    body.DocsURL,
		Context:    body.Context,
	}
}

// Sentinel errors for session lifecycle misuse.
var (
	// ErrClosed is returned by operations attempted after the
	// connection has been closed.
	ErrClosed = errors.New("vault: connection closed")

	// ErrNotConnected is returned by operations that require an
	// authenticated session before Connect has succeeded.
	ErrNotConnected = errors.New("vault: not connected")

	// ErrAlreadyConnected is returned by Connect on a session that is
	// already authenticated.
	ErrAlreadyConnected = errors.New("vault: already connected")
)

// ConnectionError reports a transport-level failure: a dial that was
// refused or timed out, or a connection that died mid-call. Distinct
// from protocol errors so callers can decide whether reconnecting is
// worthwhile.
type ConnectionError struct {
	// Target describes the endpoint, when known.
	Target string

	// Err is the underlying network error.
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("vault: connection to %s failed: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("vault: connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that a call received no response within its
// timeout. The call is removed from the pending set. The request may
// still execute server-side; whether the connection is still sound is
// the caller's decision.
type TimeoutError struct {
	// Method is the request method that timed out.
	Method string

	// Timeout is the deadline that expired, when the deadline came
	// from the session's call timeout rather than the caller's context.
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("vault: %s call timed out after %s", e.Method, e.Timeout)
	}
	return fmt.Sprintf("vault: %s call timed out", e.Method)
}
