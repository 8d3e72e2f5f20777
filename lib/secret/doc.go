// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for private key material
// and other sensitive bytes.
//
// Buffer allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the region is
// invisible to the garbage collector, the runtime never copies or
// relocates it, so Close reliably destroys every copy of the secret
// the buffer ever held.
//
// The SDK uses Buffer to hold Ed25519 signing-key seeds between reading
// the key file and constructing the in-memory private key.
package secret
