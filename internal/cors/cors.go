// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cors applies the single, fixed CORS header set every endpoint
// emits, including error responses and OPTIONS preflight.
package cors

import "net/http"

const (
	AllowOrigin      = "*"
	AllowMethods     = "GET, HEAD, OPTIONS"
	AllowHeaders     = "Content-Type, Range, Accept, Origin, Referer, User-Agent, Authorization, X-Requested-With"
	ExposeHeaders    = "Content-Length, Content-Range, Accept-Ranges, Content-Type"
	AllowCredentials = "false"
	MaxAge           = "86400"
)

// Apply sets the CORS header set on w. It must run before any body byte is
// written, and it runs unconditionally on every response path: success,
// error, or partial progress.
func Apply(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", AllowOrigin)
	h.Set("Access-Control-Allow-Methods", AllowMethods)
	h.Set("Access-Control-Allow-Headers", AllowHeaders)
	h.Set("Access-Control-Expose-Headers", ExposeHeaders)
	h.Set("Access-Control-Allow-Credentials", AllowCredentials)
	h.Set("Access-Control-Max-Age", MaxAge)
}

// HandlePreflight answers an OPTIONS request with 204 and the full CORS
// header set.
func HandlePreflight(w http.ResponseWriter) {
	Apply(w)
	w.WriteHeader(http.StatusNoContent)
}
