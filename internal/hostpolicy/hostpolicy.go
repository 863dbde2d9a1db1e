// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package hostpolicy implements the Host Policy component (C2): an
// allowlist check and per-host header templates, both resolved by peeling
// labels from the left of a hostname (most-specific match wins).
package hostpolicy

import (
	"strings"

	"github.com/ManuGH/hlsgate/internal/httpheaders"
)

// Policy is read-only after construction, so it is safe for concurrent use
// without locking.
type Policy struct {
	allowed   map[string]bool
	templates map[string]map[string]string
}

// Option configures a Policy at construction time.
type Option func(*Policy)

// WithAllowlist sets the set of admitted hostnames/suffixes. An empty
// allowlist means "allow all hosts".
func WithAllowlist(hosts []string) Option {
	return func(p *Policy) {
		for _, h := range hosts {
			p.allowed[normalizeHost(h)] = true
		}
	}
}

// WithHeaderTemplate registers a default header set applied to requests
// bound for hostname (or any of its subdomains, by the same left-peel rule
// used for IsAllowed).
func WithHeaderTemplate(hostname string, headers map[string]string) Option {
	return func(p *Policy) {
		p.templates[normalizeHost(hostname)] = headers
	}
}

// New builds a Policy from the given options.
func New(opts ...Option) *Policy {
	p := &Policy{
		allowed:   make(map[string]bool),
		templates: make(map[string]map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func normalizeHost(h string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(h), "."))
}

// suffixes returns hostname, then each dot-suffix obtained by peeling off
// the leftmost label, most specific first: "a.b.example.com" yields
// ["a.b.example.com", "b.example.com", "example.com", "com"].
func suffixes(hostname string) []string {
	h := normalizeHost(hostname)
	if h == "" {
		return nil
	}
	labels := strings.Split(h, ".")
	out := make([]string, 0, len(labels))
	for i := range labels {
		out = append(out, strings.Join(labels[i:], "."))
	}
	return out
}

// IsAllowed reports whether hostname is admitted. An empty allowlist allows
// every host.
func (p *Policy) IsAllowed(hostname string) bool {
	if len(p.allowed) == 0 {
		return true
	}
	for _, s := range suffixes(hostname) {
		if p.allowed[s] {
			return true
		}
	}
	return false
}

// HeadersFor returns the header set to send upstream for hostname: the
// most-specific matching template, with the caller's headers merged on top
// (caller wins per field).
func (p *Policy) HeadersFor(hostname string, caller httpheaders.Headers) httpheaders.Headers {
	var tmpl httpheaders.Headers
	for _, s := range suffixes(hostname) {
		if m, ok := p.templates[s]; ok {
			tmpl = httpheaders.FromMap(m)
			break
		}
	}
	if tmpl.Len() == 0 {
		return caller
	}
	return httpheaders.Merge(tmpl, caller)
}
