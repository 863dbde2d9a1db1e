// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics implements the per-host observability layer (C5):
// counters, bounded timing buffers, and the one-line structured request
// log every terminated proxy request emits.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/hlsgate/internal/urlsafety"
)

const ringCapacity = 1000

// Category distinguishes manifest fetches from segment fetches for
// per-category counters and timings.
type Category string

const (
	CategoryManifest Category = "manifest"
	CategorySegment  Category = "segment"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsgate",
		Name:      "requests_total",
		Help:      "Total proxied requests by host, category and outcome",
	}, []string{"host", "category", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hlsgate",
		Name:      "request_duration_seconds",
		Help:      "Upstream request duration by category",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"category"})

	cacheResultTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsgate",
		Name:      "playlist_cache_result_total",
		Help:      "Playlist cache hit/miss outcomes",
	}, []string{"result"})
)

// HostMetric aggregates counters and timings for a single upstream
// hostname.
type HostMetric struct {
	mu sync.Mutex

	totalRequests int64
	totalErrors   int64
	manifestCount int64
	manifestErrs  int64
	segmentCount  int64
	segmentErrs   int64

	lastErrorCode string
	lastErrorTime time.Time

	manifestTimings *timingRing
	segmentTimings  *timingRing
}

func newHostMetric() *HostMetric {
	return &HostMetric{
		manifestTimings: newTimingRing(ringCapacity),
		segmentTimings:  newTimingRing(ringCapacity),
	}
}

// Snapshot is a read-only view of a HostMetric suitable for serialization.
type Snapshot struct {
	Host               string    `json:"host"`
	TotalRequests      int64     `json:"totalRequests"`
	TotalErrors        int64     `json:"totalErrors"`
	ManifestCount      int64     `json:"manifestCount"`
	SegmentCount       int64     `json:"segmentCount"`
	SuccessRatePercent float64   `json:"successRatePercent"`
	SegmentErrorRate   float64   `json:"segmentErrorRatePercent"`
	ManifestMeanMs     float64   `json:"manifestMeanMs"`
	SegmentMeanMs      float64   `json:"segmentMeanMs"`
	LastErrorCode      string    `json:"lastErrorCode,omitempty"`
	LastErrorTime      time.Time `json:"lastErrorTime,omitempty"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (h *HostMetric) snapshot(host string) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	var successRate float64
	if h.totalRequests > 0 {
		successRate = round2(100 * float64(h.totalRequests-h.totalErrors) / float64(h.totalRequests))
	}
	var segErrRate float64
	if h.segmentCount > 0 {
		segErrRate = round2(100 * float64(h.segmentErrs) / float64(h.segmentCount))
	}

	return Snapshot{
		Host:               host,
		TotalRequests:       h.totalRequests,
		TotalErrors:         h.totalErrors,
		ManifestCount:       h.manifestCount,
		SegmentCount:        h.segmentCount,
		SuccessRatePercent:  successRate,
		SegmentErrorRate:    segErrRate,
		ManifestMeanMs:      round2(h.manifestTimings.mean()),
		SegmentMeanMs:       round2(h.segmentTimings.mean()),
		LastErrorCode:       h.lastErrorCode,
		LastErrorTime:       h.lastErrorTime,
	}
}

// Registry owns all HostMetric entries plus the global aggregate.
type Registry struct {
	mu    sync.RWMutex
	hosts map[string]*HostMetric

	global *HostMetric
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hosts:  make(map[string]*HostMetric),
		global: newHostMetric(),
	}
}

func (r *Registry) hostMetric(host string) *HostMetric {
	r.mu.RLock()
	h, ok := r.hosts[host]
	r.mu.RUnlock()
	if ok {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok = r.hosts[host]; ok {
		return h
	}
	h = newHostMetric()
	r.hosts[host] = h
	return h
}

// Result describes the outcome of a single proxied request, passed to
// Record once the request has terminated.
type Result struct {
	Host      string
	Category  Category
	Success   bool
	Status    int
	Duration  time.Duration
	ErrorCode string
	// SanitizedURL must already be redacted (urlsafety.SanitizeForLogging)
	// before reaching Result — Record and LogRequest never redact on your
	// behalf.
	SanitizedURL string
}

// Record updates per-host and global counters/timings and exports the
// matching Prometheus series. Logging is handled separately by LogRequest,
// which writes through the logger carried on the request context.
func (r *Registry) Record(res Result) {
	ms := float64(res.Duration.Microseconds()) / 1000.0
	outcome := "success"
	if !res.Success {
		outcome = "error"
	}

	requestsTotal.WithLabelValues(res.Host, string(res.Category), outcome).Inc()
	requestDuration.WithLabelValues(string(res.Category)).Observe(res.Duration.Seconds())

	update := func(h *HostMetric) {
		h.mu.Lock()
		h.totalRequests++
		if !res.Success {
			h.totalErrors++
			h.lastErrorCode = res.ErrorCode
			h.lastErrorTime = time.Now()
		}
		switch res.Category {
		case CategoryManifest:
			h.manifestCount++
			if !res.Success {
				h.manifestErrs++
			}
			h.manifestTimings.add(ms)
		case CategorySegment:
			h.segmentCount++
			if !res.Success {
				h.segmentErrs++
			}
			h.segmentTimings.add(ms)
		}
		h.mu.Unlock()
	}

	update(r.hostMetric(res.Host))
	update(r.global)
}

// RecordCacheResult tallies a playlist cache hit or miss.
func RecordCacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheResultTotal.WithLabelValues(result).Inc()
}

// HostSnapshot returns a point-in-time view for one host, or false if
// nothing has been recorded for it yet.
func (r *Registry) HostSnapshot(host string) (Snapshot, bool) {
	r.mu.RLock()
	h, ok := r.hosts[host]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	return h.snapshot(host), true
}

// GlobalSnapshot returns the aggregate across every host.
func (r *Registry) GlobalSnapshot() Snapshot {
	return r.global.snapshot("*")
}

// AllHostSnapshots returns a snapshot for every host seen so far.
func (r *Registry) AllHostSnapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.hosts))
	for host, h := range r.hosts {
		out = append(out, h.snapshot(host))
	}
	return out
}

// Reset clears every counter. Counters are otherwise monotonic; only an
// explicit call here clears them.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts = make(map[string]*HostMetric)
	r.global = newHostMetric()
}

// SanitizedURLForLog is a small convenience so callers of Record don't need
// to import urlsafety just to prepare a log-safe URL.
func SanitizedURLForLog(rawURL string) string {
	return urlsafety.SanitizeForLogging(rawURL)
}
