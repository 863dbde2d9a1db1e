// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package httpheaders provides the case-insensitive header mapping passed
// between every component boundary in the proxy.
package httpheaders

import "net/http"

// Headers is a case-insensitive string -> string mapping built on
// http.Header, which already canonicalizes keys via
// textproto.CanonicalMIMEHeaderKey.
type Headers struct {
	h http.Header
}

// New builds an empty Headers map.
func New() Headers {
	return Headers{h: make(http.Header)}
}

// FromMap builds a Headers map from a plain string map, e.g. one decoded
// from the `headers` JSON query/body parameter.
func FromMap(m map[string]string) Headers {
	h := New()
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

// FromRequest copies the recognized headers (Referer, Origin, User-Agent,
// Range) plus any others the caller sent, from an *http.Request.
func FromRequest(r *http.Request) Headers {
	h := New()
	for k, vs := range r.Header {
		for _, v := range vs {
			h.h.Add(k, v)
		}
	}
	return h
}

// Get returns the first value for key, case-insensitively, or "".
func (h Headers) Get(key string) string {
	if h.h == nil {
		return ""
	}
	return h.h.Get(key)
}

// Set assigns a single value for key, replacing any prior value.
func (h Headers) Set(key, value string) {
	h.h.Set(key, value)
}

// Has reports whether key has a non-empty value.
func (h Headers) Has(key string) bool {
	return h.Get(key) != ""
}

// Range returns the client's byte-range request header, or "" when absent.
func (h Headers) Range() string { return h.Get("Range") }

// Referer returns the caller-supplied Referer header.
func (h Headers) Referer() string { return h.Get("Referer") }

// Origin returns the caller-supplied Origin header.
func (h Headers) Origin() string { return h.Get("Origin") }

// UserAgent returns the caller-supplied User-Agent header.
func (h Headers) UserAgent() string { return h.Get("User-Agent") }

// ApplyTo sets every header this map holds onto an outbound *http.Request.
// Callers merge in any host-policy template headers before calling this so
// the caller's own values win per field.
func (h Headers) ApplyTo(req *http.Request) {
	for k, vs := range h.h {
		for i, v := range vs {
			if i == 0 {
				req.Header.Set(k, v)
			} else {
				req.Header.Add(k, v)
			}
		}
	}
}

// Merge returns a new Headers with base's entries overridden by override's
// entries for any key override sets, so the caller always wins per field.
func Merge(base, override Headers) Headers {
	out := New()
	for k, vs := range base.h {
		for _, v := range vs {
			out.h.Add(k, v)
		}
	}
	for k := range override.h {
		out.h.Del(k)
	}
	for k, vs := range override.h {
		for _, v := range vs {
			out.h.Add(k, v)
		}
	}
	return out
}

// Len reports the number of distinct header keys.
func (h Headers) Len() int { return len(h.h) }

// Keys returns the set of header names present.
func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h.h))
	for k := range h.h {
		keys = append(keys, k)
	}
	return keys
}
