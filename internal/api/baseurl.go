// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"strconv"
	"strings"
)

// deriveBaseURL computes this proxy's own externally-visible base URL from
// the incoming request, so rewritten manifest URIs point back at the right
// scheme and host. A .railway.app host always gets https, since Railway
// terminates TLS in front of the app; a localhost or private-range host
// always gets http, since there is no TLS to terminate locally. Otherwise
// X-Forwarded-Proto wins when present (https if its first entry is
// empty), then the connection's own protocol: https over TLS, else http.
func deriveBaseURL(r *http.Request) string {
	host := r.Host
	return derivedScheme(host, r) + "://" + host
}

func derivedScheme(host string, r *http.Request) string {
	hostname := host
	if h, _, ok := strings.Cut(host, ":"); ok {
		hostname = h
	}
	lower := strings.ToLower(hostname)

	if strings.HasSuffix(lower, ".railway.app") {
		return "https"
	}
	if isLocalOrPrivate(lower) {
		return "http"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return firstProto(proto)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func firstProto(v string) string {
	proto := strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
	if proto == "" {
		return "https"
	}
	return proto
}

func isLocalOrPrivate(hostname string) bool {
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return true
	}
	if rest, ok := strings.CutPrefix(hostname, "172."); ok {
		second, _, _ := strings.Cut(rest, ".")
		if n, err := strconv.Atoi(second); err == nil && n >= 16 && n <= 31 {
			return true
		}
	}
	return strings.HasPrefix(hostname, "10.") ||
		strings.HasPrefix(hostname, "192.168.")
}

// reqProtocol reports the literal HTTP protocol version string for the
// /proxy/status endpoint, e.g. "HTTP/1.1".
func reqProtocol(r *http.Request) string {
	return r.Proto
}
