// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/hlsgate/internal/httpheaders"
	"github.com/ManuGH/hlsgate/internal/manifestproxy"
)

func (s *Server) handleM3U8ProxyGET(w http.ResponseWriter, r *http.Request) {
	raw, headers, hdrJSON, perr := urlAndHeaders(r, "url")
	if perr != nil {
		writeError(w, perr)
		return
	}
	s.serveManifest(w, r, raw, headers, hdrJSON)
}

func (s *Server) handleM3U8ProxyPOST(w http.ResponseWriter, r *http.Request) {
	raw, headers, hdrJSON, perr := urlAndHeadersFromBody(r)
	if perr != nil {
		writeError(w, perr)
		return
	}
	s.serveManifest(w, r, raw, headers, hdrJSON)
}

// handleProxyHLS is the GET /proxy/hls alias: identical to GET /m3u8-proxy
// except the URL arrives under the query key "link".
func (s *Server) handleProxyHLS(w http.ResponseWriter, r *http.Request) {
	raw, headers, hdrJSON, perr := urlAndHeaders(r, "link")
	if perr != nil {
		writeError(w, perr)
		return
	}
	s.serveManifest(w, r, raw, headers, hdrJSON)
}

func (s *Server) serveManifest(w http.ResponseWriter, r *http.Request, raw string, headers httpheaders.Headers, hdrJSON string) {
	canon, perr := s.canonicalize(raw)
	if perr != nil {
		writeError(w, perr)
		return
	}
	headers = s.upstreamHeaders(canon, headers)

	baseURL := deriveBaseURL(r)
	headersQuery := manifestproxy.HeadersQuery(hdrJSON)

	if perr := s.deps.ManifestProxy.Serve(r.Context(), w, canon, headers, baseURL, headersQuery); perr != nil {
		writeError(w, perr)
	}
}
