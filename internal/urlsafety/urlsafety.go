// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package urlsafety implements the proxy's URL Safety & Normalizer (C1):
// parsing, canonicalizing, and rejecting nested or smuggled URLs, plus
// log-safe redaction of sensitive query parameters.
package urlsafety

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL is the fragment-free, single-pass-decoded, well-formed
// absolute http(s) URL produced by Normalize. It is never constructed any
// other way.
type CanonicalURL string

// String returns the canonical serialization.
func (c CanonicalURL) String() string { return string(c) }

// Parsed returns the *url.URL backing this canonical form.
func (c CanonicalURL) Parsed() *url.URL {
	u, _ := url.Parse(string(c))
	return u
}

// Hostname returns the canonical URL's hostname.
func (c CanonicalURL) Hostname() string {
	if u := c.Parsed(); u != nil {
		return u.Hostname()
	}
	return ""
}

// MalformedError reports why a URL failed normalization or safety checks.
type MalformedError struct {
	Input  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed url: %s", e.Reason)
}

func malformed(input, reason string) error {
	return &MalformedError{Input: input, Reason: reason}
}

// sensitiveParams are the query keys whose values are redacted for logging.
var sensitiveParams = map[string]bool{
	"token":        true,
	"key":          true,
	"auth":         true,
	"signature":    true,
	"sig":          true,
	"access_token": true,
	"api_key":      true,
}

// Normalize trims, strips the fragment, parses the string as an absolute
// http(s) URL and returns its canonical serialization. If the raw string
// does not parse, it is decoded exactly once (percent-decode) and retried;
// a second failure is reported as malformed.
func Normalize(s string) (CanonicalURL, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", malformed(s, "empty url")
	}

	u, err := parseAbsolute(trimmed)
	if err != nil {
		decoded, decErr := url.QueryUnescape(trimmed)
		if decErr != nil {
			return "", malformed(s, "unparseable: "+err.Error())
		}
		u, err = parseAbsolute(strings.TrimSpace(decoded))
		if err != nil {
			return "", malformed(s, "unparseable after single decode: "+err.Error())
		}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", malformed(s, "scheme must be http or https, got "+u.Scheme)
	}
	if u.Host == "" {
		return "", malformed(s, "missing host")
	}

	u.Scheme = scheme
	u.Fragment = ""
	u.RawFragment = ""

	return CanonicalURL(u.String()), nil
}

func parseAbsolute(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, errors.New("not an absolute url")
	}
	return u, nil
}

// httpSchemeOccurrences counts case-insensitive occurrences of "http://" or
// "https://" substrings anywhere in s.
func httpSchemeOccurrences(s string) int {
	lower := strings.ToLower(s)
	count := strings.Count(lower, "http://")
	count += strings.Count(lower, "https://")
	return count
}

// ValidateSafety rejects inputs that smuggle a second URL, either nested in
// a query parameter value or simply repeated.
func ValidateSafety(s string) error {
	if httpSchemeOccurrences(s) > 1 {
		return malformed(s, "more than one http(s):// occurrence")
	}

	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		// Not parseable here is not this function's concern; Normalize
		// will reject it. ValidateSafety only inspects query parameters
		// when a query string exists at all.
		return nil
	}

	for key, values := range u.Query() {
		for _, v := range values {
			if isNestedURLValue(v) {
				return malformed(s, fmt.Sprintf("query parameter %q smuggles a nested url", key))
			}
		}
	}
	return nil
}

// isNestedURLValue reports whether a query value looks like a smuggled URL:
// it begins with http(s):// and either decodes to JSON, or itself contains
// a further '?' or '&'.
func isNestedURLValue(v string) bool {
	lower := strings.ToLower(v)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	if decoded, err := url.QueryUnescape(v); err == nil {
		var js any
		if json.Unmarshal([]byte(decoded), &js) == nil {
			if _, isObj := js.(map[string]any); isObj {
				return true
			}
		}
	}

	return strings.ContainsAny(v, "?&")
}

// SanitizeForLogging redacts sensitive query parameter values so the
// caller-visible scheme/host/path remain intact for operational logs. On
// parse failure it falls back to a truncated prefix of the raw input.
func SanitizeForLogging(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return truncate(s, 100)
	}

	q := u.Query()
	changed := false
	for key := range q {
		if sensitiveParams[strings.ToLower(key)] {
			q.Set(key, "[REDACTED]")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
