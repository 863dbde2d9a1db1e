// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package manifestproxy implements the Manifest Proxy component (C6): it
// fetches an upstream HLS playlist, rewrites every nested URI to point
// back at this proxy, caches the rewritten body, and serves it with CORS.
package manifestproxy

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var uriAttrPattern = regexp.MustCompile(`URI="([^"]*)"`)

// rewriteLine classifies and rewrites a single manifest line. baseURL is
// this proxy's own origin ("https://proxy.example");
// upstream is the absolute URL the manifest was fetched from, used to
// resolve relative references; headersQuery is an already-encoded
// "&headers=..." suffix (or "") propagated when the caller supplied custom
// headers.
func rewriteLine(line string, upstream *url.URL, baseURL, headersQuery string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return line
	}

	if strings.HasPrefix(trimmed, "#") {
		switch {
		case strings.HasPrefix(trimmed, "#EXT-X-MEDIA:") && strings.Contains(trimmed, `URI="`):
			return rewriteURIAttr(line, upstream, baseURL, "m3u8-proxy", headersQuery)
		case strings.HasPrefix(trimmed, "#EXT-X-KEY:") && strings.Contains(trimmed, `URI="`):
			return rewriteURIAttr(line, upstream, baseURL, "ts-proxy", headersQuery)
		default:
			return line
		}
	}

	// A non-comment, non-empty line is a URI.
	resolved, err := upstream.Parse(trimmed)
	if err != nil {
		return line
	}

	kind := "ts-proxy"
	if strings.Contains(resolved.Path, "m3u8") || strings.Contains(trimmed, "m3u8") {
		kind = "m3u8-proxy"
	}
	return buildProxyURL(baseURL, kind, resolved.String(), headersQuery)
}

// rewriteURIAttr replaces the quoted value of a URI="..." attribute with
// an absolute proxy URL, leaving the rest of the tag line untouched. If
// the attribute value fails to resolve, the original line is kept verbatim.
func rewriteURIAttr(line string, upstream *url.URL, baseURL, kind, headersQuery string) string {
	m := uriAttrPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return line
	}
	value := line[m[2]:m[3]]

	resolved, err := upstream.Parse(value)
	if err != nil {
		return line
	}

	proxyURL := buildProxyURL(baseURL, kind, resolved.String(), headersQuery)
	return line[:m[2]] + proxyURL + line[m[3]:]
}

// buildProxyURL forms "{baseURL}/{kind}?url={percent-encoded absolute}"
// plus an optional "&headers=..." suffix.
func buildProxyURL(baseURL, kind, absoluteURL, headersQuery string) string {
	v := url.Values{}
	v.Set("url", absoluteURL)
	return fmt.Sprintf("%s/%s?%s%s", strings.TrimRight(baseURL, "/"), kind, v.Encode(), headersQuery)
}

// HeadersQuery encodes a caller-supplied headers JSON blob into the
// "&headers=..." suffix appended to every rewritten URI, so custom headers
// keep propagating across every nested fetch.
func HeadersQuery(headersJSON string) string {
	if headersJSON == "" {
		return ""
	}
	return "&headers=" + url.QueryEscape(headersJSON)
}

// Rewrite rewrites every line of an HLS manifest body fetched from
// upstream so that every nested playlist, key, and segment reference
// routes back through this proxy.
func Rewrite(body string, upstream *url.URL, baseURL, headersQuery string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = rewriteLine(line, upstream, baseURL, headersQuery)
	}
	return strings.Join(lines, "\n")
}
