// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import "net/http"

func (s *Server) handleTSProxy(w http.ResponseWriter, r *http.Request) {
	raw, headers, _, perr := urlAndHeaders(r, "url")
	if perr != nil {
		writeError(w, perr)
		return
	}

	canon, perr := s.canonicalize(raw)
	if perr != nil {
		writeError(w, perr)
		return
	}
	headers = s.upstreamHeaders(canon, headers)

	if perr := s.deps.SegmentProxy.Serve(r.Context(), w, canon, headers, headers.Range()); perr != nil {
		writeError(w, perr)
	}
}
