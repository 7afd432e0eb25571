package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockKey = "placer:run-lock"

// defaultLockTTL bounds how long a crashed holder can block other
// processes.
const defaultLockTTL = 5 * time.Minute

// releaseScript deletes the key only when it still carries our token,
// so a lock that expired and was re-acquired elsewhere is never stolen.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisOption applies a configuration option to the RedisLock.
type RedisOption func(*RedisLock)

// WithKey sets the Redis key guarding the run.
func WithKey(key string) RedisOption {
	return func(l *RedisLock) {
		if key != "" {
			l.key = key
		}
	}
}

// WithTTL sets the lock expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// RedisLock is the advisory RunLock for multi-process deployments:
// SET NX with a TTL, token-checked release.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

// NewRedisLock creates a run lock on the given client.
func NewRedisLock(client redis.UniversalClient, opts ...RedisOption) *RedisLock {
	l := &RedisLock{
		client: client,
		key:    defaultLockKey,
		ttl:    defaultLockTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire implements RunLock.
func (l *RedisLock) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrBusy
	}
	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return nil
}

// Release implements RunLock.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()
	if token == "" {
		return ErrNotHeld
	}

	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
	if err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
