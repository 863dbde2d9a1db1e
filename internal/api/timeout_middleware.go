// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/ManuGH/hlsgate/internal/proxyerr"
)

// headerTrackingWriter records whether any header/body byte has reached
// the underlying ResponseWriter, so the timeout middleware can tell
// whether it is still safe to substitute a 504 response.
type headerTrackingWriter struct {
	http.ResponseWriter
	mu      sync.Mutex
	started bool
}

func (w *headerTrackingWriter) WriteHeader(status int) {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	w.ResponseWriter.WriteHeader(status)
}

func (w *headerTrackingWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	return w.ResponseWriter.Write(b)
}

func (w *headerTrackingWriter) hasStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// timeoutMiddleware enforces the 60s total-request deadline (§4/§5,
// "Cancellation & timeouts"). It cancels the request context so any
// upstream I/O in progress unwinds, then — only if no response byte has
// reached the client yet — substitutes a 504 TIMEOUT envelope.
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
		defer cancel()

		tw := &headerTrackingWriter{ResponseWriter: w}
		done := make(chan struct{})

		go func() {
			defer close(done)
			next.ServeHTTP(tw, r.WithContext(ctx))
		}()

		select {
		case <-done:
		case <-ctx.Done():
			<-done // handler must still observe cancellation and return
			if !tw.hasStarted() {
				writeError(w, proxyerr.Timeout("request"))
			}
		}
	})
}
