// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"time"

	"github.com/ManuGH/hlsgate/internal/proxyerr"
	"github.com/ManuGH/hlsgate/internal/throttle"
)

// throttleMiddleware applies the per-client sliding-window Throttler (C4)
// ahead of every dispatched request. OPTIONS preflight is exempt: it never
// reaches upstream and must always answer so browsers can complete CORS
// negotiation.
func (s *Server) throttleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || s.deps.Throttler == nil {
			next.ServeHTTP(w, r)
			return
		}

		id := throttle.ClientID(r)
		allowed, retryAfter := s.deps.Throttler.Allow(id, time.Now())
		if !allowed {
			writeError(w, proxyerr.RateLimited(retryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}
