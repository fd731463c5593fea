// Package cache provides the bounded in-process TTL cache sitting in front
// of the domain services. It is a derived projection only: entries are
// invalidated on writes and otherwise age out after the configured TTL, so a
// missed invalidation is bounded by the TTL window.
package cache

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxEntries = 1000
	DefaultTTL        = 300 * time.Second
)

// Cache is a fixed-size TTL cache. Construct one at startup and inject it;
// there is no package-level instance.
type Cache struct {
	store  *expirable.LRU[string, any]
	hits   atomic.Int64
	misses atomic.Int64
}

func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store: expirable.NewLRU[string, any](maxEntries, nil, ttl),
	}
}

// Get returns the cached value and whether it was present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	value, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return value, ok
}

func (c *Cache) Set(key string, value any) {
	c.store.Add(key, value)
}

func (c *Cache) Delete(key string) {
	c.store.Remove(key)
}

func (c *Cache) Exists(key string) bool {
	return c.store.Contains(key)
}

func (c *Cache) Len() int {
	return c.store.Len()
}

// ClearPattern removes entries matching a simple wildcard pattern: a
// trailing "*" matches by literal prefix, a leading "*" by literal suffix,
// anything else is an exact key. Full glob is not supported. Returns the
// number of entries removed.
func (c *Cache) ClearPattern(pattern string) int {
	var match func(string) bool
	switch {
	case strings.HasSuffix(pattern, "*"):
		prefix := strings.TrimSuffix(pattern, "*")
		match = func(k string) bool { return strings.HasPrefix(k, prefix) }
	case strings.HasPrefix(pattern, "*"):
		suffix := strings.TrimPrefix(pattern, "*")
		match = func(k string) bool { return strings.HasSuffix(k, suffix) }
	default:
		match = func(k string) bool { return k == pattern }
	}

	count := 0
	for _, key := range c.store.Keys() {
		if match(key) {
			c.store.Remove(key)
			count++
		}
	}
	return count
}

// Stats reports cumulative hit/miss counts since construction.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Key joins parts into a cache key with ":" separators.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Key builders shared by services, so writers invalidate exactly what
// readers populate.

func CharacterListKey(category, era string, page, limit int) string {
	parts := []string{"characters", "list"}
	if category != "" {
		parts = append(parts, "cat:"+category)
	}
	if era != "" {
		parts = append(parts, "era:"+era)
	}
	parts = append(parts, "page:"+strconv.Itoa(page), "limit:"+strconv.Itoa(limit))
	return Key(parts...)
}

func CharacterDetailKey(characterID uint) string {
	return Key("character", "detail", strconv.FormatUint(uint64(characterID), 10))
}

func UserProgressKey(userID uint) string {
	return Key("progress", "user", strconv.FormatUint(uint64(userID), 10), "lessons")
}

// InvalidateCharacters drops all character list/detail projections.
func (c *Cache) InvalidateCharacters() {
	c.ClearPattern("characters:*")
	c.ClearPattern("character:*")
}

// InvalidateUserProgress drops cached progress projections for one user.
func (c *Cache) InvalidateUserProgress(userID uint) {
	c.ClearPattern(Key("progress", "user", strconv.FormatUint(uint64(userID), 10)) + ":*")
}
