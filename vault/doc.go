// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault implements the client session engine for the Sanctum
// credential vault daemon.
//
// A [Session] owns one logical connection: it dials the daemon over a
// Unix socket or TCP, proves possession of the agent's Ed25519 signing
// key through a challenge-response handshake, and then exchanges
// length-prefixed JSON requests. Requests from concurrent goroutines
// are multiplexed over the single connection; a dedicated read loop
// matches responses to callers by correlation id, so each caller blocks
// only on its own call.
//
// Leases returned by retrieval calls are tracked for the lifetime of
// the session and released, individually via [Session.ReleaseLease],
// or all together, best effort, when [Session.Close] runs. Use
// [WithSession] for scoped acquisition with guaranteed teardown.
//
// Server failures surface as [*Error] values carrying the daemon's
// error code and diagnostic fields; local failures use distinct kinds
// ([*ConnectionError], [*TimeoutError], [ErrClosed], and
// wire.FramingError) so callers can tell a dead socket from a policy
// denial. The engine never retries anything: retry and backoff policy
// belongs to the caller.
package vault
