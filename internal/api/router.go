// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/hlsgate/internal/api/middleware"
	"github.com/ManuGH/hlsgate/internal/cors"
	xglog "github.com/ManuGH/hlsgate/internal/log"
)

// Server wires Deps into a routed http.Handler.
type Server struct {
	deps   Deps
	router chi.Router
}

// NewServer builds the Server and its route table.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}
	s.router = s.routes()
	return s
}

// Handler returns the fully wired http.Handler, suitable for http.Server.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(xglog.Middleware())
	r.Use(corsAlwaysMiddleware)
	r.Use(middleware.Shield(middleware.DefaultShieldConfig()))
	r.Use(s.throttleMiddleware)
	r.Use(s.timeoutMiddleware)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		cors.Apply(w)
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cors.Apply(w)
		w.WriteHeader(http.StatusNotFound)
	})

	// OPTIONS preflight is answered identically for every path; chi
	// matches this wildcard ahead of the method-specific routes below.
	r.Options("/*", func(w http.ResponseWriter, r *http.Request) {
		cors.HandlePreflight(w)
	})

	r.Get("/proxy/status", s.handleStatus)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/m3u8-proxy", s.handleM3U8ProxyGET)
	r.Post("/m3u8-proxy", s.handleM3U8ProxyPOST)
	r.Get("/proxy/hls", s.handleProxyHLS)
	r.Post("/resolve", s.handleResolve)
	r.Get("/ts-proxy", s.handleTSProxy)
	r.Get("/sub-proxy", s.handleSubProxy)

	return r
}

// corsAlwaysMiddleware applies the fixed CORS header set after the request
// ID, panic-recovery and logging middleware but ahead of every other
// middleware and handler, so it is present even when the shield,
// the per-client throttler, or the request-timeout middleware reject a
// request before the route handler ever runs.
func corsAlwaysMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cors.Apply(w)
		next.ServeHTTP(w, r)
	})
}
