package automation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryRedis) ReleaseLock(_ context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; !ok || v != owner {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memoryRedis) LockKey(scope, id string) string {
	return "solarpo:lock:" + scope + ":" + id
}

func TestRedisLockerExclusivePerJob(t *testing.T) {
	store := newMemoryRedis()
	locker, err := NewRedisLocker(store, 0)
	require.NoError(t, err)
	ctx := context.Background()
	jobID := uuid.New()

	first, err := locker.ForJob(jobID)
	require.NoError(t, err)
	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	key := "solarpo:lock:material_orders:" + jobID.String()
	assert.Equal(t, defaultLockTTL, store.ttls[key])

	second, err := locker.ForJob(jobID)
	require.NoError(t, err)
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := locker.ForJob(uuid.New())
	require.NoError(t, err)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, second.Release(ctx))
	_, held := store.data[key]
	assert.True(t, held, "non-owner release must keep the lock")

	require.NoError(t, first.Release(ctx))
	_, held = store.data[key]
	assert.False(t, held)
}

func TestRedisLockReleaseKeepsForeignOwner(t *testing.T) {
	store := newMemoryRedis()
	locker, err := NewRedisLocker(store, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()
	jobID := uuid.New()

	lock, err := locker.ForJob(jobID)
	require.NoError(t, err)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	key := store.LockKey(lockScope, jobID.String())
	store.data[key] = "someone-else"

	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.data[key])
}

func TestLockerRejectsNilJob(t *testing.T) {
	_, err := NewRedisLocker(nil, time.Minute)
	require.Error(t, err)

	locker, err := NewRedisLocker(newMemoryRedis(), time.Minute)
	require.NoError(t, err)
	_, err = locker.ForJob(uuid.Nil)
	require.Error(t, err)

	_, err = NewLocalLocker().ForJob(uuid.Nil)
	require.Error(t, err)
}

func TestLocalLockerReleaseIsIdempotent(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()
	jobID := uuid.New()

	a, _ := locker.ForJob(jobID)
	b, _ := locker.ForJob(jobID)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Release(ctx))
	require.NoError(t, a.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
