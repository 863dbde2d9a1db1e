// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordAndSnapshot(t *testing.T) {
	r := NewRegistry()

	r.Record(Result{Host: "a.example", Category: CategoryManifest, Success: true, Status: 200, Duration: 100 * time.Millisecond})
	r.Record(Result{Host: "a.example", Category: CategorySegment, Success: false, Status: 502, Duration: 50 * time.Millisecond, ErrorCode: "BAD_GATEWAY"})

	snap, ok := r.HostSnapshot("a.example")
	require.True(t, ok)
	assert.EqualValues(t, 2, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.TotalErrors)
	assert.EqualValues(t, 1, snap.ManifestCount)
	assert.EqualValues(t, 1, snap.SegmentCount)
	assert.Equal(t, 50.0, snap.SuccessRatePercent)
	assert.Equal(t, 100.0, snap.SegmentErrorRate)
	assert.Equal(t, "BAD_GATEWAY", snap.LastErrorCode)

	global := r.GlobalSnapshot()
	assert.EqualValues(t, 2, global.TotalRequests)
}

func TestRegistry_UnknownHost(t *testing.T) {
	r := NewRegistry()
	_, ok := r.HostSnapshot("never-seen.example")
	assert.False(t, ok)
}

func TestRegistry_ResetClearsCounters(t *testing.T) {
	r := NewRegistry()
	r.Record(Result{Host: "a.example", Category: CategoryManifest, Success: true, Status: 200, Duration: time.Millisecond})
	r.Reset()

	_, ok := r.HostSnapshot("a.example")
	assert.False(t, ok)
	assert.EqualValues(t, 0, r.GlobalSnapshot().TotalRequests)
}

func TestTimingRing_MeanOverBoundedWindow(t *testing.T) {
	ring := newTimingRing(3)
	ring.add(10)
	ring.add(20)
	ring.add(30)
	assert.Equal(t, 20.0, ring.mean())

	// Pushes out the first sample (10): mean of 20,30,40.
	ring.add(40)
	assert.Equal(t, 30.0, ring.mean())
	assert.Equal(t, 3, ring.count())
}
