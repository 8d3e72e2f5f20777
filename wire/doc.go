// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the framing and message types for the Sanctum
// vault daemon protocol. Messages are JSON objects exchanged as
// length-prefixed frames: a 4-byte big-endian uint32 payload length
// followed by exactly that many payload bytes.
//
// The package has no knowledge of the session layer. [WriteFrame] and
// [ReadFrame] move opaque byte payloads; the request/response envelope
// types ([Request], [Response], [ErrorBody]) describe the JSON carried
// inside a frame. Both the client engine and test servers import this
// package so the wire types are defined once rather than mirrored.
package wire
