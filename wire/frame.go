// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// lengthPrefixSize is the fixed size of the frame header: a 4-byte
// big-endian uint32 giving the exact byte length of the payload.
const lengthPrefixSize = 4

// MaxMessageSize is the maximum allowed payload size. 4 MiB is generous
// for any vault operation; a credential value is typically well under a
// kilobyte. The bound protects against a misbehaving peer declaring an
// enormous length and exhausting memory.
const MaxMessageSize = 4 * 1024 * 1024

// FramingError reports a violation of the length-prefix framing
// protocol: a stream that closed in the middle of a message, or a
// declared payload length exceeding [MaxMessageSize].
type FramingError struct {
	// Reason describes the violation.
	Reason string

	// Err is the underlying I/O error, if any.
	Err error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("framing: %s: %v", e.Reason, e.Err)
	}
	return "framing: " + e.Reason
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// WriteFrame writes payload to w as a single length-prefixed frame.
// The prefix and payload are assembled into one buffer and written with
// a single Write call, so a frame is never split across writes; callers
// that share w between goroutines must still serialize WriteFrame calls.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return &FramingError{Reason: fmt.Sprintf("payload length %d exceeds maximum %d", len(payload), MaxMessageSize)}
	}
	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame[:lengthPrefixSize], uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and returns its
// payload. Blocks until the full frame is available. Returns io.EOF
// unchanged when the stream closes cleanly between frames, and a
// *FramingError when the stream closes mid-message or the declared
// length exceeds [MaxMessageSize].
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &FramingError{Reason: "stream closed mid-header", Err: err}
	}
	payloadLength := binary.BigEndian.Uint32(header[:])
	if payloadLength > MaxMessageSize {
		return nil, &FramingError{Reason: fmt.Sprintf("declared payload length %d exceeds maximum %d", payloadLength, MaxMessageSize)}
	}
	payload := make([]byte, payloadLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, &FramingError{Reason: "stream closed mid-message", Err: err}
	}
	return payload, nil
}
