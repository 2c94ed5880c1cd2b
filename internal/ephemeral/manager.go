// Package ephemeral holds short-lived conversational context keyed by an
// anonymized session reference. Nothing here is persisted and nothing can be
// traced back to a network origin.
package ephemeral

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const DefaultTTL = 24 * time.Hour

// Entry is one prompt/response exchange. Callers scrub PII before storing;
// entries are never mutated after creation.
type Entry struct {
	Prompt    string
	Response  string
	CreatedAt time.Time
}

type bucket struct {
	entries []Entry
	expires time.Time
}

// Manager maps session references to expiring context buckets. A bucket's
// expiry is fixed at first write and is not extended by later activity, so
// context dies a fixed interval after the conversation started regardless
// of how long it runs.
type Manager struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	ttl     time.Duration
	now     func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		buckets: make(map[string]*bucket),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (m *Manager) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Reference derives the anonymized identifier for a session. The hash is
// one-way over the client session token and an already-hashed network
// origin; the raw origin never reaches this package. The same pair always
// maps to the same reference.
func Reference(sessionToken, originHash string) string {
	sum := sha256.Sum256([]byte(sessionToken + ":" + originHash))
	return hex.EncodeToString(sum[:])
}

// Store appends an entry to the reference's bucket, creating the bucket
// with its expiry on first write.
func (m *Manager) Store(ref string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	b, ok := m.buckets[ref]
	if !ok {
		b = &bucket{expires: now.Add(m.ttl)}
		m.buckets[ref] = b
	}
	b.entries = append(b.entries, e)
}

// Retrieve sweeps expired buckets, then returns the live bucket's entries
// in insertion order, or nil when there is no live bucket. Cleanup is
// purely opportunistic; there is no background sweeper.
func (m *Manager) Retrieve(ref string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	b, ok := m.buckets[ref]
	if !ok {
		return nil
	}
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Buckets returns the number of live buckets after a sweep.
func (m *Manager) Buckets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.buckets)
}

func (m *Manager) sweepLocked() {
	now := m.now()
	for ref, b := range m.buckets {
		if b.expires.Before(now) {
			delete(m.buckets, ref)
		}
	}
}
