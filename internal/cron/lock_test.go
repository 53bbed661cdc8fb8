package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	values map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{values: map[string]string{}} }

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	a, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)

	unlockA, ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	unlockB, ok, err := b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, unlockB)

	require.NoError(t, unlockA(ctx))
	assert.NotContains(t, store.values, "cron")

	_, ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockLeavesTakenOverLease(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	lock, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)

	unlock, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	store.values["cron"] = "someone-else"

	require.NoError(t, unlock(ctx))
	assert.Equal(t, "someone-else", store.values["cron"])

	delete(store.values, "cron")
	assert.NoError(t, unlock(ctx), "expired lease is not an error")
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", 0)
	assert.Error(t, err)
	_, err = NewRedisLock(newFakeRedis(), "", 0)
	assert.Error(t, err)

	lock, err := NewRedisLock(newFakeRedis(), "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	lock := &LocalLock{}
	unlock, ok, _ := lock.TryLock(ctx)
	require.True(t, ok)
	_, ok, _ = lock.TryLock(ctx)
	assert.False(t, ok)

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "double unlock is a no-op")
	_, ok, _ = lock.TryLock(ctx)
	assert.True(t, ok)
}
