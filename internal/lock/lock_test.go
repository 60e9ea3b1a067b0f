package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLocker_Exclusive(t *testing.T) {
	mr, rdb := newRedis(t)
	l := NewRedisLocker(rdb)
	ctx := context.Background()

	lease, err := l.Acquire(ctx, "lock:seating:1", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, lease.Token())

	got, err := mr.Get("lock:seating:1")
	require.NoError(t, err)
	assert.Equal(t, lease.Token(), got)

	_, err = l.Acquire(ctx, "lock:seating:1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.Acquire(ctx, "lock:seating:2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("lock:seating:1"))

	_, err = l.Acquire(ctx, "lock:seating:1", time.Minute)
	assert.NoError(t, err)
}

func TestRedisLocker_StaleReleaseKeepsNewOwner(t *testing.T) {
	mr, rdb := newRedis(t)
	l := NewRedisLocker(rdb)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, fresh.Token(), got)
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	now := time.Unix(1_700_000_000, 0)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	a, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLocked)

	now = now.Add(2 * time.Second)
	b, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	require.NoError(t, a.Release(ctx))
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLocked, "stale lease must not release the new holder")

	require.NoError(t, b.Release(ctx))
	require.NoError(t, b.Release(ctx))
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.NoError(t, err)
}
