// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import "sync"

// leaseRecord is the local metadata kept for one tracked lease.
type leaseRecord struct {
	path       string
	ttlSeconds int
}

// leaseTracker records the leases handed out by retrieval calls so the
// session can release them individually on demand or all together at
// teardown. The tracker is local bookkeeping only: removal is
// authoritative for "stop tracking", regardless of whether the server's
// release call later succeeds.
type leaseTracker struct {
	mu     sync.Mutex
	leases map[string]leaseRecord
}

func newLeaseTracker() *leaseTracker {
	return &leaseTracker{leases: make(map[string]leaseRecord)}
}

// record starts tracking a lease. Called for every retrieval result
// that carries a lease id; an empty id is ignored.
func (t *leaseTracker) record(leaseID, path string, ttlSeconds int) {
	if leaseID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leases[leaseID] = leaseRecord{path: path, ttlSeconds: ttlSeconds}
}

// remove stops tracking a lease, reporting whether it was tracked.
// Removing an unknown id is a no-op, which makes double release a
// harmless race instead of an error.
func (t *leaseTracker) remove(leaseID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, tracked := t.leases[leaseID]
	delete(t.leases, leaseID)
	return tracked
}

// snapshot returns the currently tracked lease ids.
func (t *leaseTracker) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.leases))
	for id := range t.leases {
		ids = append(ids, id)
	}
	return ids
}

// count returns the number of tracked leases.
func (t *leaseTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.leases)
}
