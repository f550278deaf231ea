package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/protoform/pkg/observability"
)

const (
	// DefaultCacheSize is the default number of parsed schemas kept in memory
	DefaultCacheSize = 128
	// DefaultCacheTTL is the default lifetime of a cached schema
	DefaultCacheTTL = 10 * time.Minute
)

// CacheConfig holds cache configuration
type CacheConfig struct {
	MaxEntries int           // Max parsed schemas kept (default: 128)
	TTL        time.Duration // TTL for cache entries (default: 10 minutes)
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxEntries: DefaultCacheSize,
		TTL:        DefaultCacheTTL,
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits      int64
	Misses    int64
	HitRate   float64
	ItemCount int64
}

// Cache is an in-memory LRU of parsed schemas keyed by a hash of the schema
// text. Concurrent parses of the same text are collapsed into one. Failed
// parses are not cached. Safe for concurrent use.
type Cache struct {
	entries *lru.LRU[string, *Schema]
	group   singleflight.Group
	metrics *observability.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache creates a new schema cache
func NewCache(config *CacheConfig) *Cache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	maxEntries := config.MaxEntries
	if maxEntries < 1 {
		maxEntries = DefaultCacheSize
	}

	return &Cache{
		entries: lru.NewLRU[string, *Schema](maxEntries, nil, config.TTL),
	}
}

// WithMetrics records hits and misses to m as well as to the cache's own stats
func (c *Cache) WithMetrics(m *observability.Metrics) *Cache {
	c.metrics = m
	return c
}

// Key returns the cache key for schema text
func Key(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Get returns a cached schema or ErrCacheMiss
func (c *Cache) Get(content string) (*Schema, error) {
	s, ok := c.entries.Get(Key(content))
	c.record(ok)
	if !ok {
		return nil, ErrCacheMiss
	}
	return s, nil
}

// Parse returns the cached schema for content, parsing and caching it on a miss
func (c *Cache) Parse(content string) (*Schema, error) {
	key := Key(content)
	if s, ok := c.entries.Get(key); ok {
		c.record(true)
		return s, nil
	}
	c.record(false)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		s, err := Parse(content)
		if !errors.Is(err, ErrEmptySchema) {
			warnings := 0
			if s != nil {
				warnings = len(s.Warnings())
			}
			c.metrics.RecordParse(err, warnings)
		}
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Schema), nil
}

// Purge removes every cached schema
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	stats := CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: int64(c.entries.Len()),
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	return stats
}

func (c *Cache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	c.metrics.RecordCacheLookup(hit)
}
