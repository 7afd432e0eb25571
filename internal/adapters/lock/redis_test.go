package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T, opts ...RedisOption) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLock(client, opts...), mr
}

func TestRedisLockAcquireRelease(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLock(t)

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists(defaultLockKey) {
		t.Fatal("lock key missing after acquire")
	}
	if err := l.Acquire(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("second acquire = %v; want ErrBusy", err)
	}
	if err := l.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists(defaultLockKey) {
		t.Fatal("lock key still present after release")
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
}

func TestRedisLockBlocksOtherProcess(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLock(t)

	other := NewRedisLock(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := other.Acquire(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("foreign acquire = %v; want ErrBusy", err)
	}
}

func TestRedisLockExpiry(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLock(t, WithTTL(time.Second))

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)

	// The TTL elapsed and someone else took the lock; our release must
	// not delete their key.
	other := NewRedisLock(redis.NewClient(&redis.Options{Addr: mr.Addr()}), WithTTL(time.Second))
	if err := other.Acquire(ctx); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if err := l.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("stale release = %v; want ErrNotHeld", err)
	}
	if !mr.Exists(defaultLockKey) {
		t.Fatal("stale release removed the new holder's key")
	}
}

func TestRedisLockReleaseWithoutAcquire(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLock(t)

	if err := l.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("release = %v; want ErrNotHeld", err)
	}
}

func TestRedisLockCustomKey(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLock(t, WithKey("placer:test-lock"))

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("placer:test-lock") {
		t.Fatal("custom key not used")
	}
}
