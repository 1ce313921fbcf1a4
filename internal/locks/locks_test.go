package locks

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, unlock(ctx))
	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLocker_ExpiredHoldIsReclaimable(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	staleUnlock, ok, err := l.TryLock(ctx, "k", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// the expired holder's unlock must not release the new acquisition
	require.NoError(t, staleUnlock(ctx))
	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}

func newRedisLocker(t *testing.T) (*mr.Miniredis, *RedisLocker) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return m, NewRedisLocker(client, "lock:")
}

func TestRedisLocker(t *testing.T) {
	m, l := newRedisLocker(t)
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "storygen:brd-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "storygen:brd-1", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, unlock(ctx))
	_, ok, err = l.TryLock(ctx, "storygen:brd-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// TTL releases a wedged holder
	m.FastForward(2 * time.Minute)
	_, ok, err = l.TryLock(ctx, "storygen:brd-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLocker_StaleUnlockKeepsNewHold(t *testing.T) {
	m, l := newRedisLocker(t)
	ctx := context.Background()

	staleUnlock, ok, err := l.TryLock(ctx, "storygen:brd-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// the first hold expires and a second caller takes over the key
	m.FastForward(2 * time.Minute)
	_, ok, err = l.TryLock(ctx, "storygen:brd-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// the outlived holder releases only its own token, so the key stays
	require.NoError(t, staleUnlock(ctx))
	require.True(t, m.Exists("lock:storygen:brd-1"))

	_, ok, err = l.TryLock(ctx, "storygen:brd-1", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}
