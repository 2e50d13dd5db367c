package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/captcha/ports"
)

// DefaultExpiry is how long an issued token stays valid
const DefaultExpiry = 24 * time.Hour

type entry struct {
	valid    bool
	issuedAt time.Time
}

// MemoryStore is the in-memory reference implementation of the Store
// interface. A single mutex guards the whole entry map; operations are
// cheap enough that coarse locking beats anything finer-grained here.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	expiry  time.Duration
	now     func() time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, which lets tests drive expiry
// deterministically instead of sleeping
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new in-memory store. A non-positive expiry
// falls back to DefaultExpiry.
func NewMemoryStore(expiry time.Duration, opts ...MemoryOption) *MemoryStore {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	s := &MemoryStore{
		entries: make(map[string]*entry),
		expiry:  expiry,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AddToken inserts a fresh token as live. Returns false if the token
// value is already present, whether still live or already consumed.
func (s *MemoryStore) AddToken(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()

	if _, exists := s.entries[token]; exists {
		return false, nil
	}

	s.entries[token] = &entry{valid: true, issuedAt: s.now()}
	return true, nil
}

// Validate reports whether the token is live, consuming it when
// invalidate is true. Unknown, consumed, and expired tokens all
// uniformly return false.
func (s *MemoryStore) Validate(ctx context.Context, token string, invalidate bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()

	e, exists := s.entries[token]
	if !exists || !e.valid {
		return false, nil
	}

	if invalidate {
		e.valid = false
	}

	return true, nil
}

// Expire sweeps the store, invalidating every live token past its
// expiry window
func (s *MemoryStore) Expire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	return nil
}

// Len reports the number of entries currently held. Useful for tests
// and metrics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// expireLocked invalidates entries past the expiry window and purges
// entries that have been dead for a further full window. Inside that
// grace window a consumed or expired token value still rejects re-adds;
// past it, a re-add is indistinguishable from a fresh token. Callers
// must hold s.mu.
func (s *MemoryStore) expireLocked() {
	now := s.now()
	for token, e := range s.entries {
		if e.valid && !now.Before(e.issuedAt.Add(s.expiry)) {
			e.valid = false
		}
		if !e.valid && now.Sub(e.issuedAt) >= 2*s.expiry {
			delete(s.entries, token)
		}
	}
}

var _ ports.Store = (*MemoryStore)(nil)
