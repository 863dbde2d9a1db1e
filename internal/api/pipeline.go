// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"github.com/ManuGH/hlsgate/internal/httpheaders"
	"github.com/ManuGH/hlsgate/internal/proxyerr"
	"github.com/ManuGH/hlsgate/internal/urlsafety"
)

// canonicalize runs the URL Safety & Normalizer (C1) and Host Policy (C2)
// checks every proxied endpoint requires before touching upstream: safety
// validation, normalization, then the allowlist.
func (s *Server) canonicalize(raw string) (urlsafety.CanonicalURL, *proxyerr.Error) {
	if err := urlsafety.ValidateSafety(raw); err != nil {
		return "", proxyerr.Malformed(err.Error())
	}
	canon, err := urlsafety.Normalize(raw)
	if err != nil {
		return "", proxyerr.Malformed(err.Error())
	}
	host := canon.Hostname()
	if s.deps.HostPolicy != nil && !s.deps.HostPolicy.IsAllowed(host) {
		return "", proxyerr.HostNotAllowed(host)
	}
	return canon, nil
}

// upstreamHeaders completes the C2 half of the "Host Policy -> Manifest
// Proxy | Segment Proxy" data flow (spec §2): it merges canon's host header
// template underneath the caller's own headers, caller wins per field, so a
// configured per-host Referer/User-Agent template actually reaches upstream
// instead of being silently shadowed.
func (s *Server) upstreamHeaders(canon urlsafety.CanonicalURL, caller httpheaders.Headers) httpheaders.Headers {
	if s.deps.HostPolicy == nil {
		return caller
	}
	return s.deps.HostPolicy.HeadersFor(canon.Hostname(), caller)
}
