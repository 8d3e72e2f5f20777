// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwgale/sanctum-go/wire"
)

// callResult is the terminal outcome of one call: a result payload or
// a typed error, never both.
type callResult struct {
	result json.RawMessage
	err    error
}

// dispatcher correlates concurrent requests with their responses over
// one connection. Each call registers a fresh monotonically increasing
// id in the pending table and blocks on its own completion channel; a
// single read loop demultiplexes responses by id. The read loop never
// blocks behind a per-call lock: delivery channels are buffered, so a
// slow caller cannot stall other callers' responses.
type dispatcher struct {
	conn   *conn
	logger *slog.Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan callResult

	// failure, once set, is the terminal connection error. Every later
	// call fails with it immediately instead of registering.
	failure error

	// done is closed when the read loop exits.
	done chan struct{}
}

// newDispatcher starts the read loop. The loop runs until the
// connection closes or dies, at which point every pending call is
// resolved with the terminal error.
func newDispatcher(conn *conn, logger *slog.Logger) *dispatcher {
	d := &dispatcher{
		conn:    conn,
		logger:  logger,
		pending: make(map[uint64]chan callResult),
		done:    make(chan struct{}),
	}
	go d.readLoop()
	return d
}

// call sends one request and blocks until its response arrives, the
// context expires, or the connection dies. Safe for concurrent use;
// each caller blocks only on its own correlation id. When timeout is
// positive it bounds the round trip; the caller's context can impose a
// tighter deadline either way.
func (d *dispatcher) call(ctx context.Context, method string, params map[string]any, timeout time.Duration) (json.RawMessage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	completion := make(chan callResult, 1)
	d.mu.Lock()
	if d.failure != nil {
		failure := d.failure
		d.mu.Unlock()
		return nil, failure
	}
	d.nextID++
	id := d.nextID
	d.pending[id] = completion
	d.mu.Unlock()

	payload, err := json.Marshal(wire.Request{ID: id, Method: method, Params: params})
	if err != nil {
		d.forget(id)
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}

	if err := d.conn.send(payload); err != nil {
		d.forget(id)
		var framingErr *wire.FramingError
		if errors.Is(err, ErrClosed) || errors.As(err, &framingErr) {
			return nil, err
		}
		return nil, &ConnectionError{Err: err}
	}

	select {
	case result := <-completion:
		return result.result, result.err
	case <-ctx.Done():
		// The request may still execute server-side; only the local
		// bookkeeping is retracted.
		d.forget(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Method: method, Timeout: timeout}
		}
		return nil, ctx.Err()
	}
}

// forget removes a pending call that will never be resolved (send
// failure or local timeout).
func (d *dispatcher) forget(id uint64) {
	d.mu.Lock()
	delete(d.pending, id)
	d.mu.Unlock()
}

// readLoop is the single reader of the connection. It resolves pending
// calls by correlation id; responses for unknown ids are dropped, which
// guards against stale data from calls that already timed out.
func (d *dispatcher) readLoop() {
	defer close(d.done)

	for {
		payload, err := d.conn.receive()
		if err != nil {
			d.fail(err)
			return
		}

		var response wire.Response
		if err := json.Unmarshal(payload, &response); err != nil {
			// A peer that sends undecodable frames is unusable; kill
			// the connection rather than guessing which call failed.
			d.fail(fmt.Errorf("decoding response: %w", err))
			return
		}

		result := callResult{result: response.Result}
		if len(response.Error) > 0 {
			result = callResult{err: errorFromWire(response.Error)}
		}

		d.mu.Lock()
		completion, known := d.pending[response.ID]
		delete(d.pending, response.ID)
		d.mu.Unlock()

		if !known {
			d.logger.Debug("dropping response for unknown request id", "id", response.ID)
			continue
		}
		completion <- result
	}
}

// fail resolves every pending call with a terminal connection error and
// marks the dispatcher dead for future callers. A locally closed
// connection reports ErrClosed; anything else is a connection failure.
func (d *dispatcher) fail(err error) {
	terminal := err
	if !errors.Is(err, ErrClosed) {
		terminal = &ConnectionError{Err: err}
	}
	d.conn.close()

	d.mu.Lock()
	d.failure = terminal
	for id, completion := range d.pending {
		delete(d.pending, id)
		completion <- callResult{err: terminal}
	}
	d.mu.Unlock()
}

// close shuts down the connection and waits for the read loop to exit,
// guaranteeing every pending call has been resolved before returning.
func (d *dispatcher) close() error {
	err := d.conn.close()
	<-d.done
	return err
}
