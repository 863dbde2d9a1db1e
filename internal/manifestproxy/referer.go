// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manifestproxy

import (
	"net/url"
	"strings"
)

// RepairReferer rebuilds a Referer that is present but not itself a valid
// absolute URL: it is joined onto origin, as a path if it starts with "/",
// otherwise treated as a bare slug. A referer that cannot be repaired (no
// origin available) is dropped rather than sent malformed.
func RepairReferer(referer, origin string) (string, bool) {
	referer = strings.TrimSpace(referer)
	if referer == "" {
		return "", false
	}

	if u, err := url.Parse(referer); err == nil && u.IsAbs() {
		return referer, true
	}

	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", false
	}
	origin = strings.TrimRight(origin, "/")

	if strings.HasPrefix(referer, "/") {
		return origin + referer, true
	}
	return origin + "/" + referer, true
}
