package locks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnlockFunc releases one acquisition. Calling it after the lock's TTL has
// already handed the key to someone else is a no-op.
type UnlockFunc func(ctx context.Context) error

// Locker is a best-effort mutual exclusion primitive used to serialize the
// "populate empty story list" trigger per document. TryLock returns false
// when another holder has the key; on success the returned UnlockFunc
// releases exactly that acquisition and no other.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, bool, error)
}

// RedisLocker implements Locker with SET NX and a TTL so a crashed holder
// cannot wedge the key forever. Each acquisition writes a random token as
// the key's value and unlock is a compare-and-delete on that token, so a
// holder that outlived its TTL cannot release a lock the key has since
// been re-granted to.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// unlockScript is the compare-and-delete half of the SET NX idiom: the GET
// and DEL must be one atomic step or the stale-holder race reappears
// between them.
var unlockScript = redis.NewScript(
	`if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`)

func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "lock:"
	}
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, bool, error) {
	token := newToken()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	unlock := func(ctx context.Context) error {
		return unlockScript.Run(ctx, l.client, []string{l.prefix + key}, token).Err()
	}
	return unlock, true, nil
}

func newToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

type memHold struct {
	token   string
	expires time.Time
}

// MemoryLocker is a single-process fallback used when Redis is not
// configured, and in unit tests. It keeps the same token discipline as the
// Redis implementation.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]memHold
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memHold)}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.held[key]; ok && time.Now().Before(h.expires) {
		return nil, false, nil
	}
	token := newToken()
	l.held[key] = memHold{token: token, expires: time.Now().Add(ttl)}
	unlock := func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h, ok := l.held[key]; ok && h.token == token {
			delete(l.held, key)
		}
		return nil
	}
	return unlock, true, nil
}
