// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/jwgale/sanctum-go/wire"
)

// conn owns the byte stream to the daemon. It serializes concurrent
// writers so a frame never interleaves with another mid-frame; reads
// are unguarded because only the dispatcher's read loop calls receive.
type conn struct {
	netConn   net.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

// dial establishes the stream to the target. Dial failures (refused,
// timeout, socket path not found) surface as *ConnectionError, distinct
// from protocol errors.
func dial(ctx context.Context, target Target) (*conn, error) {
	var dialer net.Dialer
	netConn, err := dialer.DialContext(ctx, target.network(), target.address())
	if err != nil {
		return nil, &ConnectionError{Target: target.String(), Err: err}
	}
	return &conn{netConn: netConn}, nil
}

// send writes one framed payload. Safe for concurrent use.
func (c *conn) send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}
	return wire.WriteFrame(c.netConn, payload)
}

// receive reads one framed payload. Blocks until a full frame arrives
// or the connection dies. Returns ErrClosed once the connection has
// been closed locally.
func (c *conn) receive() ([]byte, error) {
	payload, err := wire.ReadFrame(c.netConn)
	if err != nil {
		if c.closed.Load() {
			return nil, ErrClosed
		}
		return nil, err
	}
	return payload, nil
}

// close releases the OS resources. Idempotent; concurrent reads and
// writes are unblocked and fail with ErrClosed.
func (c *conn) close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.netConn.Close()
	})
	return err
}
