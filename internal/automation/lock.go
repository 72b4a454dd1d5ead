package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	lockScope      = "material_orders"
	defaultLockTTL = 2 * time.Minute
)

// Lock guards a single job's generation run.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Locker hands out the lock for a job.
type Locker interface {
	ForJob(jobID uuid.UUID) (Lock, error)
}

// redisStore defines the operations used by RedisLocker.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) (bool, error)
	LockKey(scope, id string) string
}

// RedisLocker issues per-job locks backed by Redis SETNX + TTL.
type RedisLocker struct {
	client redisStore
	ttl    time.Duration
}

func NewRedisLocker(client redisStore, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}, nil
}

func (l *RedisLocker) ForJob(jobID uuid.UUID) (Lock, error) {
	if jobID == uuid.Nil {
		return nil, errors.New("job id is required")
	}
	return &redisLock{
		client: l.client,
		key:    l.client.LockKey(lockScope, jobID.String()),
		ttl:    l.ttl,
	}, nil
}

type redisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

func (l *redisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches, so a run
// that outlived its TTL never drops a lock someone else now holds.
func (l *redisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	defer func() { l.owner = "" }()
	if _, err := l.client.ReleaseLock(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// LocalLocker serializes runs inside one process. It backs the sqlite local
// mode where no redis endpoint is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[uuid.UUID]struct{})}
}

func (l *LocalLocker) ForJob(jobID uuid.UUID) (Lock, error) {
	if jobID == uuid.Nil {
		return nil, errors.New("job id is required")
	}
	return &localLock{parent: l, jobID: jobID}, nil
}

type localLock struct {
	parent *LocalLocker
	jobID  uuid.UUID
	owned  bool
}

func (l *localLock) Acquire(context.Context) (bool, error) {
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	if _, taken := l.parent.held[l.jobID]; taken {
		return false, nil
	}
	l.parent.held[l.jobID] = struct{}{}
	l.owned = true
	return true, nil
}

func (l *localLock) Release(context.Context) error {
	if !l.owned {
		return nil
	}
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	delete(l.parent.held, l.jobID)
	l.owned = false
	return nil
}
