package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/captcha/ports"
)

// consumeScript atomically consumes a live token: a plain GET/SET pair
// would let two concurrent validations both observe success.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == "1" then
	redis.call("SET", KEYS[1], "0", "KEEPTTL")
	return 1
end
return 0
`)

// RedisStore is a Redis implementation of the Store interface. Keys
// carry the expiry as their TTL, so uniqueness, expiry, and garbage
// collection all come from Redis primitives.
type RedisStore struct {
	client *redis.Client
	prefix string
	expiry time.Duration
}

// NewRedisStore creates a new Redis-backed store. A non-positive
// expiry falls back to DefaultExpiry.
func NewRedisStore(client *redis.Client, expiry time.Duration) *RedisStore {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &RedisStore{
		client: client,
		prefix: "captcha:token:",
		expiry: expiry,
	}
}

// AddToken inserts a fresh token as live. SET NX both enforces
// uniqueness and attaches the expiry TTL in one round trip.
func (s *RedisStore) AddToken(ctx context.Context, token string) (bool, error) {
	key := s.prefix + token

	ok, err := s.client.SetNX(ctx, key, "1", s.expiry).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add token: %w", err)
	}

	return ok, nil
}

// Validate reports whether the token is live, consuming it when
// invalidate is true. Consumed tokens keep their key (value "0") for
// the remaining TTL so the same token value cannot be re-added early.
func (s *RedisStore) Validate(ctx context.Context, token string, invalidate bool) (bool, error) {
	key := s.prefix + token

	if invalidate {
		n, err := consumeScript.Run(ctx, s.client, []string{key}).Int()
		if err != nil {
			return false, fmt.Errorf("failed to consume token: %w", err)
		}
		return n == 1, nil
	}

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}

	return val == "1", nil
}

// Expire is a no-op: Redis evicts expired keys itself
func (s *RedisStore) Expire(ctx context.Context) error {
	return nil
}

var _ ports.Store = (*RedisStore)(nil)
