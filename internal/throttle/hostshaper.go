// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package throttle

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostShaperConfig configures the optional per-host upstream-fetch shaper.
// It sits below the client-facing sliding-window Throttler and exists to
// keep a single misbehaving upstream host from monopolizing the outbound
// connection pool, independent of how many distinct clients are asking for
// it.
type HostShaperConfig struct {
	RatePerSecond float64
	Burst         int
}

// DefaultHostShaperConfig allows a generous, steady rate per upstream host
// with enough burst to cover an initial manifest fetch plus its first
// batch of segment requests.
func DefaultHostShaperConfig() HostShaperConfig {
	return HostShaperConfig{RatePerSecond: 20, Burst: 40}
}

// HostShaper token-bucket-limits outbound fetches per upstream host.
type HostShaper struct {
	cfg HostShaperConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostShaper constructs a HostShaper. Pass HostShaperConfig{} to get
// DefaultHostShaperConfig's values.
func NewHostShaper(cfg HostShaperConfig) *HostShaper {
	if cfg.RatePerSecond <= 0 || cfg.Burst <= 0 {
		cfg = DefaultHostShaperConfig()
	}
	return &HostShaper{cfg: cfg, limiters: make(map[string]*rate.Limiter)}
}

func (s *HostShaper) limiterFor(host string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), s.cfg.Burst)
		s.limiters[host] = l
	}
	return l
}

// Wait blocks until host's bucket admits one more request, or ctx is done.
func (s *HostShaper) Wait(ctx context.Context, host string) error {
	return s.limiterFor(host).Wait(ctx)
}
