// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import "net/http"

type resolveResponse struct {
	URL      string `json:"url"`
	Resolved bool   `json:"resolved"`
}

// handleResolve implements POST /resolve: normalize a messy provider
// string (URL Resolver, C8) into one canonical manifest URL before
// playback begins.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	raw, headers, _, perr := urlAndHeadersFromBody(r)
	if perr != nil {
		writeError(w, perr)
		return
	}

	canon, perr := s.deps.Resolver.Resolve(r.Context(), raw, headers)
	if perr != nil {
		writeError(w, perr)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{URL: canon.String(), Resolved: true})
}
