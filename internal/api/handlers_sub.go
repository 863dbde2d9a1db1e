// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/hlsgate/internal/cors"
	"github.com/ManuGH/hlsgate/internal/platform/httpx"
	"github.com/ManuGH/hlsgate/internal/proxyerr"
)

const subtitleUpstreamTimeout = 55 * time.Second

// handleSubProxy implements GET /sub-proxy. Subtitle fetching is an
// out-of-scope external collaborator (spec §1): this is the trivial,
// unmodified pass-through the spec calls for, not a rewriting pipeline.
func (s *Server) handleSubProxy(w http.ResponseWriter, r *http.Request) {
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

	client := httpx.NewClient(subtitleUpstreamTimeout)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, canon.String(), nil)
	if err != nil {
		writeError(w, proxyerr.Internal(err))
		return
	}
	headers.ApplyTo(req)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", httpx.DefaultUserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		writeError(w, proxyerr.BadGateway(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		writeError(w, proxyerr.FromUpstreamStatus(resp.StatusCode, canon.Hostname()))
		return
	}

	cors.Apply(w)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/vtt"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, resp.Body)
}
