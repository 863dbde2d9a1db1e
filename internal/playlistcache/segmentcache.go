// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlistcache

import (
	"sync"
	"time"
)

// SegmentCacheTTL is the entry lifetime for the optional segment cache.
const SegmentCacheTTL = 5 * time.Minute

// SegmentCacheCapacity bounds the number of distinct cached segments.
const SegmentCacheCapacity = 1000

// SegmentEntry is a complete, non-range segment response held by
// SegmentCache: the bytes, the upstream content type, and its expiry.
type SegmentEntry struct {
	Body        []byte
	ContentType string
	expiresAt   time.Time
}

// SegmentCache holds complete (non-range) segment responses, disabled by
// default. Range responses must never be offered to Set; callers are
// responsible for only caching whole-body 200 fetches. Eviction is
// LRU-ish: capacity pressure evicts the least-recently-touched key first,
// same as the original provider's in-process segment cache, ahead of a
// TTL-based reap.
type SegmentCache struct {
	mu       sync.Mutex
	enabled  bool
	capacity int
	ttl      time.Duration
	entries  map[string]*SegmentEntry
	touched  map[string]time.Time
}

// NewSegmentCache builds a SegmentCache. enabled defaults to false per the
// specification; callers opt in explicitly. capacity <= 0 defaults to
// SegmentCacheCapacity, ttl <= 0 to SegmentCacheTTL.
func NewSegmentCache(enabled bool, capacity int, ttl time.Duration) *SegmentCache {
	if capacity <= 0 {
		capacity = SegmentCacheCapacity
	}
	if ttl <= 0 {
		ttl = SegmentCacheTTL
	}
	return &SegmentCache{
		enabled:  enabled,
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*SegmentEntry),
		touched:  make(map[string]time.Time),
	}
}

// Enabled reports whether this cache accepts writes.
func (c *SegmentCache) Enabled() bool {
	return c.enabled
}

// Get returns a cached segment, or false if disabled, absent, or expired.
func (c *SegmentCache) Get(key string) (*SegmentEntry, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		delete(c.touched, key)
		return nil, false
	}
	c.touched[key] = time.Now()
	return e, true
}

// Set stores a complete segment response. A no-op when the cache is
// disabled. Callers must not pass range (206) bodies.
func (c *SegmentCache) Set(key string, body []byte, contentType string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLRULocked()
	}

	c.entries[key] = &SegmentEntry{
		Body:        body,
		ContentType: contentType,
		expiresAt:   time.Now().Add(c.ttl),
	}
	c.touched[key] = time.Now()
}

// evictLRULocked drops the least-recently-touched entry. Caller holds c.mu.
func (c *SegmentCache) evictLRULocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, t := range c.touched {
		if first || t.Before(oldestTime) {
			oldestKey, oldestTime = k, t
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		delete(c.touched, oldestKey)
	}
}

// Len reports the current entry count.
func (c *SegmentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
