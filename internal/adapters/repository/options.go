package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithNow replaces the clock used to stamp runs without a creation
// time. Tests use this to order runs deterministically.
func WithNow(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}
