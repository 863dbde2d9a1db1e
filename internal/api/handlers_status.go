// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"time"

	"github.com/ManuGH/hlsgate/internal/platform/httpx"
)

type statusResponse struct {
	Status          string `json:"status"`
	Timestamp       string `json:"timestamp"`
	UserAgent       string `json:"userAgent"`
	ServerURL       string `json:"serverUrl"`
	Protocol        string `json:"protocol"`
	Host            string `json:"host"`
	XForwardedProto string `json:"xForwardedProto"`
	ReqProtocol     string `json:"reqProtocol"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	baseURL := deriveBaseURL(r)
	proto := derivedScheme(r.Host, r)

	writeJSON(w, http.StatusOK, statusResponse{
		Status:          "ok",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		UserAgent:       httpx.DefaultUserAgent,
		ServerURL:       baseURL,
		Protocol:        proto,
		Host:            r.Host,
		XForwardedProto: r.Header.Get("X-Forwarded-Proto"),
		ReqProtocol:     reqProtocol(r),
	})
}

// handleHealthz is the ambient liveness endpoint every teacher-style
// service carries regardless of the proxy's functional scope.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
