// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resolver implements the URL Resolver component (C8): it turns a
// messy provider-supplied string ("A or B", pipe-separated alternatives,
// a JSON blob, free text with an embedded link) into a single canonical
// HLS manifest URL, probing candidates against the upstream before
// committing to one.
package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ManuGH/hlsgate/internal/hostpolicy"
	"github.com/ManuGH/hlsgate/internal/httpheaders"
	"github.com/ManuGH/hlsgate/internal/platform/httpx"
	"github.com/ManuGH/hlsgate/internal/proxyerr"
	"github.com/ManuGH/hlsgate/internal/urlsafety"
)

// ProbeTimeout bounds the HEAD probe issued against each URL candidate.
const ProbeTimeout = 5 * time.Second

var (
	orSplitPattern  = regexp.MustCompile(`(?i)\s+or\s+`)
	urlMatchPattern = regexp.MustCompile(`https?://[^\s"<>{}|]+`)
)

// jsonFields is the fixed, ordered list of object keys searched for a
// string-typed URL when the input parses as a JSON object.
var jsonFields = []string{"url", "link", "src", "source", "stream", "m3u8", "playlist"}

// Resolver is the URL Resolver component (C8).
type Resolver struct {
	Policy *hostpolicy.Policy
	Client *http.Client
}

// New builds a Resolver backed by policy and a hardened HEAD-probe client.
func New(policy *hostpolicy.Policy) *Resolver {
	return &Resolver{
		Policy: policy,
		Client: httpx.NewClient(ProbeTimeout),
	}
}

// Resolve turns input into a single canonical manifest URL, or reports
// proxyerr.CodeURLMalformed / proxyerr.CodeHostNotAllowed when nothing
// survives.
func (r *Resolver) Resolve(ctx context.Context, input string, headers httpheaders.Headers) (urlsafety.CanonicalURL, *proxyerr.Error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", proxyerr.Malformed("empty resolver input")
	}

	var alternatives []string
	switch {
	case orSplitPattern.MatchString(trimmed):
		alternatives = orSplitPattern.Split(trimmed, -1)
	case strings.Contains(trimmed, "|"):
		alternatives = strings.Split(trimmed, "|")
	default:
		alternatives = []string{trimmed}
	}

	var lastErr *proxyerr.Error
	for _, alt := range alternatives {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if u, err := r.resolveOne(ctx, alt, headers); err == nil {
			return u, nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", proxyerr.Malformed("no candidate url found in input of shape: " + shapeOf(trimmed))
}

// resolveOne extracts and probes candidates from a single (non-or/pipe)
// alternative.
func (r *Resolver) resolveOne(ctx context.Context, alt string, headers httpheaders.Headers) (urlsafety.CanonicalURL, *proxyerr.Error) {
	searchIn := alt
	if jsonURL, ok := extractFromJSONObject(alt); ok {
		searchIn = jsonURL
	}

	matches := urlMatchPattern.FindAllString(searchIn, -1)
	if len(matches) == 0 {
		return "", proxyerr.Malformed("no url pattern found")
	}

	m3u8Matches, otherMatches := partitionM3U8(matches)

	var lastErr *proxyerr.Error
	for _, candidate := range append(append([]string{}, m3u8Matches...), otherMatches...) {
		canon, perr := r.validateAndAllow(candidate)
		if perr != nil {
			lastErr = perr
			continue
		}

		if strings.Contains(strings.ToLower(candidate), "m3u8") {
			return canon, nil
		}

		ctype, probeErr := r.headProbe(ctx, canon, headers)
		if probeErr == nil && looksLikeM3U8(ctype) {
			return canon, nil
		}
	}

	// No candidate's textual shape or probed content-type confirmed m3u8.
	// If none of the matches even looked like m3u8 to begin with, fall
	// back to accepting the first match outright and let playback itself
	// discover the content type.
	if len(m3u8Matches) == 0 && len(otherMatches) > 0 {
		if canon, perr := r.validateAndAllow(otherMatches[0]); perr == nil {
			return canon, nil
		} else {
			lastErr = perr
		}
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", proxyerr.Malformed("no candidate survived validation")
}

// validateAndAllow runs the safety check, normalization, and host-policy
// allowlist check, in that order.
func (r *Resolver) validateAndAllow(candidate string) (urlsafety.CanonicalURL, *proxyerr.Error) {
	if err := urlsafety.ValidateSafety(candidate); err != nil {
		return "", proxyerr.Malformed(err.Error())
	}
	canon, err := urlsafety.Normalize(candidate)
	if err != nil {
		return "", proxyerr.Malformed(err.Error())
	}
	host := canon.Hostname()
	if r.Policy != nil && !r.Policy.IsAllowed(host) {
		return "", proxyerr.HostNotAllowed(host)
	}
	return canon, nil
}

// extractFromJSONObject reports whether alt parses as a JSON object and,
// if so, returns the first string value found under jsonFields in order.
func extractFromJSONObject(alt string) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(alt), &obj); err != nil {
		return "", false
	}
	for _, field := range jsonFields {
		if v, ok := obj[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// partitionM3U8 splits matches into those whose text contains "m3u8" and
// the rest, preserving relative order within each group.
func partitionM3U8(matches []string) (m3u8s, others []string) {
	for _, m := range matches {
		if strings.Contains(strings.ToLower(m), "m3u8") {
			m3u8s = append(m3u8s, m)
		} else {
			others = append(others, m)
		}
	}
	return m3u8s, others
}

func looksLikeM3U8(contentType string) bool {
	lower := strings.ToLower(contentType)
	return strings.Contains(lower, "mpegurl") || strings.Contains(lower, "m3u8")
}

func (r *Resolver) headProbe(ctx context.Context, u urlsafety.CanonicalURL, headers httpheaders.Headers) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, u.String(), nil)
	if err != nil {
		return "", err
	}
	headers.ApplyTo(req)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", httpx.DefaultUserAgent)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.Header.Get("Content-Type"), nil
}

func shapeOf(s string) string {
	const maxLen = 60
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
