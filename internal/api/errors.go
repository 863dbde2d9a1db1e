// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/hlsgate/internal/proxyerr"
)

// errorEnvelope is the JSON shape every failed request responds with.
type errorEnvelope struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Hint       string `json:"hint,omitempty"`
	Host       string `json:"host,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// writeError serializes perr as the standard error envelope. It assumes
// CORS headers were already applied by the surrounding middleware and that
// no response byte has been written yet.
func writeError(w http.ResponseWriter, perr *proxyerr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(perr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Code:       string(perr.Code),
		Message:    perr.Message,
		Hint:       perr.Hint,
		Host:       perr.Host,
		RetryAfter: perr.RetryAfter,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
