package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_AddTokenTwice(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.False(t, ok, "re-adding a present token must be rejected")
}

func TestMemoryStore_ConsumedTokenStillRejectsReAdd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Validate(ctx, "random string", true)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.False(t, ok, "a consumed token value is still present")
}

func TestMemoryStore_ValidateConsumes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Validate(ctx, "random string", true)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Validate(ctx, "random string", true)
	require.NoError(t, err)
	require.False(t, ok, "a consumed token must not validate again")
}

func TestMemoryStore_PeekDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		ok, err = s.Validate(ctx, "random string", false)
		require.NoError(t, err)
		require.True(t, ok, "peek validation must not consume")
	}

	ok, err = s.Validate(ctx, "random string", true)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Validate(ctx, "random string", false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	ok, err := s.Validate(ctx, "never issued", true)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStore(time.Hour, WithClock(clock.Now))

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(59 * time.Minute)
	ok, err = s.Validate(ctx, "random string", false)
	require.NoError(t, err)
	require.True(t, ok, "token should still be live inside the window")

	clock.Advance(time.Minute)
	ok, err = s.Validate(ctx, "random string", true)
	require.NoError(t, err)
	require.False(t, ok, "token past issuedAt+expiry must be invalid")
}

func TestMemoryStore_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStore(time.Hour, WithClock(clock.Now))

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	// now == issuedAt + expiry counts as expired
	clock.Advance(time.Hour)
	ok, err = s.Validate(ctx, "random string", false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_ExpireSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStore(time.Hour, WithClock(clock.Now))

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(2 * time.Hour)
	require.NoError(t, s.Expire(ctx))
	require.NoError(t, s.Expire(ctx))

	ok, err = s.Validate(ctx, "random string", true)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_PurgesLongDeadEntries(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStore(time.Hour, WithClock(clock.Now))

	ok, err := s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)

	// Expired but inside the grace window: entry kept, re-add rejected
	clock.Advance(90 * time.Minute)
	require.NoError(t, s.Expire(ctx))
	require.Equal(t, 1, s.Len())
	ok, err = s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.False(t, ok)

	// Past twice the expiry the entry is gone and the value is reusable
	clock.Advance(time.Hour)
	require.NoError(t, s.Expire(ctx))
	require.Equal(t, 0, s.Len())

	ok, err = s.AddToken(ctx, "random string")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStore_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	ok, err := s.AddToken(ctx, "contended token")
	require.NoError(t, err)
	require.True(t, ok)

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			live, err := s.Validate(ctx, "contended token", true)
			require.NoError(t, err)
			results <- live
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for live := range results {
		if live {
			successes++
		}
	}
	require.Equal(t, 1, successes, "exactly one caller may consume a token")
}

func TestMemoryStore_ConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.AddToken(ctx, "contended token")
			require.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	require.Equal(t, 1, successes, "only one concurrent add may win")
}
