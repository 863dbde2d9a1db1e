// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package throttle implements the per-client sliding-window rate limiter
// (C4). Each client identifier owns an ordered sequence of request
// timestamps; admission trims the window, checks capacity, and appends.
package throttle

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rateLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hlsgate",
	Name:      "throttle_rejected_total",
	Help:      "Total requests rejected by the sliding-window throttler",
})

// Config configures the sliding-window throttler.
type Config struct {
	Window        time.Duration
	MaxRequests   int
	SweepInterval time.Duration
}

// DefaultConfig mirrors a conservative per-client budget suitable for a
// playback proxy: short window, small burst.
func DefaultConfig() Config {
	return Config{
		Window:        60 * time.Second,
		MaxRequests:   120,
		SweepInterval: 30 * time.Second,
	}
}

type record struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// Throttler is the sliding-window rate limiter keyed by client identifier.
type Throttler struct {
	cfg Config

	mu      sync.Mutex
	records map[string]*record

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs a Throttler and starts its background sweep goroutine if
// cfg.SweepInterval > 0.
func New(cfg Config) *Throttler {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultConfig().MaxRequests
	}
	t := &Throttler{
		cfg:     cfg,
		records: make(map[string]*record),
		stop:    make(chan struct{}),
	}
	if cfg.SweepInterval > 0 {
		go t.sweepLoop(cfg.SweepInterval)
	}
	return t
}

// Stop halts the background sweep. Safe to call more than once.
func (t *Throttler) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *Throttler) getRecord(clientID string) *record {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[clientID]
	if !ok {
		r = &record{}
		t.records[clientID] = r
	}
	return r
}

// Allow admits or rejects a request from clientID at time now. On
// rejection it returns the number of seconds the caller should wait before
// retrying, computed as ceil((oldest + window - now) / 1s).
func (t *Throttler) Allow(clientID string, now time.Time) (allowed bool, retryAfter int) {
	r := t.getRecord(clientID)

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-t.cfg.Window)
	kept := r.timestamps[:0]
	for _, ts := range r.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.timestamps = kept

	if len(r.timestamps) >= t.cfg.MaxRequests {
		oldest := r.timestamps[0]
		wait := oldest.Add(t.cfg.Window).Sub(now)
		retryAfter = int((wait + time.Second - time.Nanosecond) / time.Second)
		if retryAfter < 0 {
			retryAfter = 0
		}
		rateLimitExceeded.Inc()
		return false, retryAfter
	}

	r.timestamps = append(r.timestamps, now)
	return true, 0
}

// sweepLoop periodically drops client records whose timestamps have all
// aged out, reclaiming memory for idle clients.
func (t *Throttler) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.stop:
			return
		}
	}
}

func (t *Throttler) sweep() {
	now := time.Now()
	cutoff := now.Add(-t.cfg.Window)

	t.mu.Lock()
	defer t.mu.Unlock()

	for id, r := range t.records {
		r.mu.Lock()
		allExpired := true
		for _, ts := range r.timestamps {
			if ts.After(cutoff) {
				allExpired = false
				break
			}
		}
		r.mu.Unlock()
		if allExpired {
			delete(t.records, id)
		}
	}
}

// ClientID resolves the throttle key for r: the first X-Forwarded-For
// entry, else X-Real-IP, else the peer address, else "unknown".
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
