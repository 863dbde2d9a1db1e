// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware holds the outer, coarse rate-limit shield that sits
// ahead of the per-client sliding-window throttler. The shield exists so a
// single source can be capped cheaply before it ever reaches the more
// expensive, more precise component further down the chain.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/hlsgate/internal/cors"
)

// ShieldConfig configures the outer httprate limiter.
type ShieldConfig struct {
	RequestLimit int
	WindowSize   time.Duration
}

// DefaultShieldConfig is generous enough to never trip for a well-behaved
// player, but bounds a runaway or hostile client before it reaches the
// sliding-window throttler.
func DefaultShieldConfig() ShieldConfig {
	return ShieldConfig{RequestLimit: 600, WindowSize: time.Minute}
}

// Shield builds the outer rate-limit middleware. It answers over-limit
// requests directly with the same JSON envelope shape the dispatcher uses
// elsewhere. It applies CORS headers itself too, defensively, in case this
// middleware is ever wired ahead of the dispatcher's own CORS pass.
func Shield(cfg ShieldConfig) func(http.Handler) http.Handler {
	if cfg.RequestLimit <= 0 {
		cfg = DefaultShieldConfig()
	}
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			cors.Apply(w)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"RATE_LIMIT_EXCEEDED","message":"too many requests","retryAfter":60}`))
		}),
	)
}
