// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlistcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := New(0, 0) // no background sweep for this test

	c.Set("https://a.example/m.m3u8", []byte("#EXTM3U"), 5*time.Minute)

	body, ok := c.Get("https://a.example/m.m3u8")
	require.True(t, ok)
	assert.Equal(t, "#EXTM3U", string(body))

	_, ok = c.Get("https://a.example/missing.m3u8")
	assert.False(t, ok)
}

func TestMemoryCache_ExpirationWithinTTL(t *testing.T) {
	c := New(0, 0)

	c.Set("u", []byte("body"), 50*time.Millisecond)

	body, ok := c.Get("u")
	require.True(t, ok)
	assert.Equal(t, "body", string(body))

	time.Sleep(100 * time.Millisecond)

	_, ok = c.Get("u")
	assert.False(t, ok, "expected entry to have expired")
}

func TestMemoryCache_ReinsertionResetsTTL(t *testing.T) {
	c := New(0, 0)

	c.Set("u", []byte("v1"), 50*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	c.Set("u", []byte("v2"), 50*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	body, ok := c.Get("u")
	require.True(t, ok, "reinsertion should have reset the TTL")
	assert.Equal(t, "v2", string(body))
}

func TestMemoryCache_Delete(t *testing.T) {
	c := New(0, 0)
	c.Set("u", []byte("v"), time.Minute)

	_, ok := c.Get("u")
	require.True(t, ok)

	c.Delete("u")
	_, ok = c.Get("u")
	assert.False(t, ok)
}

func TestMemoryCache_CapacityEvictsOldest(t *testing.T) {
	c := New(2, 0)

	c.Set("a", []byte("1"), time.Minute)
	c.Set("b", []byte("2"), time.Minute)
	c.Set("c", []byte("3"), time.Minute)

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	_, cOK := c.Get("c")

	assert.False(t, aOK, "oldest entry should have been evicted")
	assert.True(t, bOK)
	assert.True(t, cOK)
	assert.LessOrEqual(t, c.Stats().CurrentSize, 2)
}

func TestMemoryCache_Stats(t *testing.T) {
	c := New(0, 0)
	c.Set("u", []byte("v"), time.Minute)

	_, _ = c.Get("u")
	_, _ = c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	c.Set("u", []byte("v"), time.Minute)

	_, ok := c.Get("u")
	assert.False(t, ok)
	assert.Equal(t, Stats{}, c.Stats())
}
