package cron

import (
	"context"
	"sync"
	"testing"
	"time"
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

func TestRedisLockScopedPerEnv(t *testing.T) {
	store := newMemoryRedis()
	ctx := context.Background()

	prod, err := NewRedisLock(store, "prod", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	ok, err := prod.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire, ok=%v err=%v", ok, err)
	}
	if ttl := store.ttls["solarpo:lock:scheduler:prod"]; ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}

	secondProd, _ := NewRedisLock(store, "prod", time.Minute)
	if ok, _ := secondProd.Acquire(ctx); ok {
		t.Fatal("second prod scheduler must not acquire")
	}

	local, _ := NewRedisLock(store, "", time.Minute)
	if ok, _ := local.Acquire(ctx); !ok {
		t.Fatal("local env lock should be independent")
	}
	if _, held := store.data["solarpo:lock:scheduler:local"]; !held {
		t.Fatal("expected local key")
	}

	if err := secondProd.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := store.data["solarpo:lock:scheduler:prod"]; !held {
		t.Fatal("non-owner release must keep the lock")
	}
	if err := prod.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := store.data["solarpo:lock:scheduler:prod"]; held {
		t.Fatal("owner release must delete the key")
	}
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := newMemoryRedis()
	ctx := context.Background()
	lock, _ := NewRedisLock(store, "prod", time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	delete(store.data, "solarpo:lock:scheduler:prod")
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release of expired lock: %v", err)
	}
}

func TestNewRedisLockRequiresClient(t *testing.T) {
	if _, err := NewRedisLock(nil, "prod", time.Minute); err == nil {
		t.Fatal("expected error")
	}
}

func TestProcessLock(t *testing.T) {
	var lock ProcessLock
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatal("expected second acquire to fail")
	}
	_ = lock.Release(ctx)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
}
