// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyfile loads and generates the Ed25519 signing keys that
// agents use to authenticate to the Sanctum vault daemon.
//
// A key file holds a hex-encoded 32-byte Ed25519 seed. The daemon's key
// layout places plaintext keys at <dir>/<agent>.key and
// passphrase-protected keys at <dir>/<agent>.key.enc. The encrypted
// format is a hex-encoded blob of salt (16 bytes) followed by nonce
// (24 bytes) followed by NaCl secretbox ciphertext; the secretbox key
// is derived from the passphrase with PBKDF2-HMAC-SHA256 at 100 000
// iterations.
//
// Decoded seeds pass through [secret.Buffer] so they are mlocked and
// zeroed once the in-memory private key has been constructed.
package keyfile
