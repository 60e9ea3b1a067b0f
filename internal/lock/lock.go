// Package lock serialises seating runs per event.  RedisLocker shares the
// lock between replicas; LocalLocker covers single-process deployments and
// the case where Redis is unreachable at startup.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when the key is already held by someone else.
var ErrLocked = errors.New("lock: already held")

// Locker acquires exclusive, expiring locks by key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock.  Release is safe to call more than once.
type Lease interface {
	Token() string
	Release(ctx context.Context) error
}

// releaseScript deletes the key only when it still holds our token, so an
// expired lease never removes a lock that was taken over by another run.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker returns a locker backed by rdb.
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// Acquire sets key to a fresh token if it is absent.  ErrLocked is returned
// when the key exists.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return &redisLease{rdb: l.rdb, key: key, token: token}, nil
}

type redisLease struct {
	rdb   *redis.Client
	key   string
	token string
}

func (le *redisLease) Token() string { return le.token }

func (le *redisLease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, le.rdb, []string{le.key}, le.token).Err()
}

// LocalLocker implements Locker in process memory.  Expired entries are
// reclaimed by the next Acquire on the same key.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	clock func() time.Time
}

type localEntry struct {
	token   string
	expires time.Time
}

// NewLocalLocker returns an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]localEntry{}, clock: time.Now}
}

// Acquire takes key unless an unexpired lease holds it.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLocked
	}
	token := uuid.NewString()
	l.held[key] = localEntry{token: token, expires: now.Add(ttl)}
	return &localLease{l: l, key: key, token: token}, nil
}

type localLease struct {
	l     *LocalLocker
	key   string
	token string
}

func (le *localLease) Token() string { return le.token }

func (le *localLease) Release(context.Context) error {
	le.l.mu.Lock()
	defer le.l.mu.Unlock()
	if e, ok := le.l.held[le.key]; ok && e.token == le.token {
		delete(le.l.held, le.key)
	}
	return nil
}
