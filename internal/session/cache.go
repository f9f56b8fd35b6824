package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Cache is the bounded working set of sessions keyed by visitor id. Entries
// expire after the inactivity window; the durable record outlives them.
type Cache interface {
	Get(ctx context.Context, visitorID string) (*Session, bool)
	Put(ctx context.Context, s *Session)
	Remove(ctx context.Context, visitorID string)
}

const cacheShards = 16

type cacheEntry struct {
	session  *Session
	expireAt time.Time
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// MemoryCache is a sharded in-process TTL cache. Shard locks keep concurrent
// visitors from contending on a single mutex; a given visitor's entry is
// only ever touched under its shard lock.
type MemoryCache struct {
	shards  [cacheShards]*cacheShard
	ttl     time.Duration
	maxSize int
	clock   func() time.Time
}

// NewMemoryCache creates a cache whose entries expire after ttl. maxSize
// bounds the total entry count across shards; zero means 10000.
func NewMemoryCache(ttl time.Duration, maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	c := &MemoryCache{ttl: ttl, maxSize: maxSize, clock: time.Now}
	for i := range c.shards {
		c.shards[i] = &cacheShard{entries: make(map[string]cacheEntry)}
	}
	return c
}

func (c *MemoryCache) shard(visitorID string) *cacheShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(visitorID))
	return c.shards[h.Sum32()%cacheShards]
}

// Get returns the cached session if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, visitorID string) (*Session, bool) {
	shard := c.shard(visitorID)
	shard.mu.RLock()
	entry, ok := shard.entries[visitorID]
	shard.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.clock().After(entry.expireAt) {
		shard.mu.Lock()
		delete(shard.entries, visitorID)
		shard.mu.Unlock()
		return nil, false
	}
	return entry.session, true
}

// Put stores the session, evicting expired entries (and, at capacity, the
// entry closest to expiry) from the target shard.
func (c *MemoryCache) Put(_ context.Context, s *Session) {
	shard := c.shard(s.VisitorID)
	now := c.clock()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	for key, entry := range shard.entries {
		if now.After(entry.expireAt) {
			delete(shard.entries, key)
		}
	}
	if len(shard.entries) >= c.maxSize/cacheShards {
		var oldestKey string
		var oldest time.Time
		for key, entry := range shard.entries {
			if oldestKey == "" || entry.expireAt.Before(oldest) {
				oldestKey, oldest = key, entry.expireAt
			}
		}
		if oldestKey != "" {
			delete(shard.entries, oldestKey)
		}
	}
	shard.entries[s.VisitorID] = cacheEntry{session: s, expireAt: now.Add(c.ttl)}
}

// Remove drops the visitor's entry.
func (c *MemoryCache) Remove(_ context.Context, visitorID string) {
	shard := c.shard(visitorID)
	shard.mu.Lock()
	delete(shard.entries, visitorID)
	shard.mu.Unlock()
}
