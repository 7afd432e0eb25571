// Package lock serializes allocation runs: at most one run may be
// active at a time per deployment.
package lock

import (
	"context"
	"sync"
)

// RunLock guards the allocation pipeline. Acquire fails fast with
// ErrBusy instead of queueing; callers surface the conflict.
type RunLock interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Mutex is the in-process RunLock used by single-instance deployments.
type Mutex struct {
	mu   sync.Mutex
	held bool
}

// NewMutex creates an in-process run lock.
func NewMutex() *Mutex {
	return &Mutex{}
}

// Acquire implements RunLock.
func (m *Mutex) Acquire(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		return ErrBusy
	}
	m.held = true
	return nil
}

// Release implements RunLock.
func (m *Mutex) Release(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held {
		return ErrNotHeld
	}
	m.held = false
	return nil
}
