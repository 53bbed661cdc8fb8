package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/shoppingcart/pkg/redis"
)

// KV is the subset of pkg/redis.Client used by RedisStore.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	SessionKey(key string) string
}

var _ KV = (*redis.Client)(nil)

// RedisStore keeps session values in redis under the session namespace.
// A zero TTL keeps keys until they are forgotten.
type RedisStore struct {
	kv  KV
	ttl time.Duration
}

func NewRedisStore(kv KV, ttl time.Duration) (*RedisStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.kv.Get(ctx, s.kv.SessionKey(key))
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return []byte(v), true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.kv.Set(ctx, s.kv.SessionKey(key), value, s.ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	ok, err := s.kv.Exists(ctx, s.kv.SessionKey(key))
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Forget(ctx context.Context, key string) error {
	full := s.kv.SessionKey(key)
	if err := s.kv.Del(ctx, full); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if _, err := s.kv.DeletePrefix(ctx, full+"."); err != nil {
		return fmt.Errorf("redis forget %s: %w", key, err)
	}
	return nil
}
