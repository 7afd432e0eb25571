package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/talentgrid/placer/pkg/logger"
	"github.com/talentgrid/placer/pkg/metrics"
)

// LoadFunc produces a table from a path. Replaceable in tests.
type LoadFunc func(path string) (*Table, error)

// Cache loads the configured table once and shares it between
// concurrent acquirers until Invalidate is called. The load result,
// including a failure, is held until invalidated so a missing file is
// not re-scanned on every scoring pair.
type Cache struct {
	mu     sync.Mutex
	path   string
	load   LoadFunc
	table  *Table
	err    error
	loaded bool
	logger logger.Logger
}

// CacheOption applies a configuration option to the Cache.
type CacheOption func(*Cache)

// WithLoader replaces the table loader.
func WithLoader(fn LoadFunc) CacheOption {
	return func(c *Cache) {
		if fn != nil {
			c.load = fn
		}
	}
}

// WithCacheLogger sets the logger used by the cache.
func WithCacheLogger(l logger.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache creates a cache for the table at path.
func NewCache(path string, opts ...CacheOption) *Cache {
	c := &Cache{path: path, load: Load}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire returns the shared table, loading it on first use.
func (c *Cache) Acquire(ctx context.Context) (*Table, error) {
	if c.path == "" {
		return nil, ErrNoPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.table, c.err
	}

	if c.logger == nil {
		c.logger = logger.Get().Named("embedding")
	}
	start := time.Now()
	c.table, c.err = c.load(c.path)
	c.loaded = true
	if c.err != nil {
		c.logger.Warn(ctx, "embedding table load failed",
			logger.String("path", c.path),
			logger.Error(c.err),
		)
		return nil, c.err
	}
	elapsed := time.Since(start)
	metrics.RecordEmbeddingLoadDuration(float64(elapsed.Milliseconds()))
	c.logger.Info(ctx, "embedding table loaded",
		logger.String("path", c.path),
		logger.Int("words", c.table.Size()),
		logger.Int("dim", c.table.Dim()),
		logger.Any("elapsed", elapsed),
	)
	return c.table, nil
}

// Invalidate drops the cached table and any cached load failure. The
// next Acquire reloads from disk.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = nil
	c.err = nil
	c.loaded = false
}
