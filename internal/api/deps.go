// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api implements the Request Dispatcher (C9): the HTTP surface
// enumerated in spec §6, request parsing, timeout enforcement, and
// component-error-to-HTTP translation. Every endpoint is routed through
// chi and shares one Deps value built once at process start.
package api

import (
	"time"

	"github.com/ManuGH/hlsgate/internal/hostpolicy"
	"github.com/ManuGH/hlsgate/internal/manifestproxy"
	"github.com/ManuGH/hlsgate/internal/metrics"
	"github.com/ManuGH/hlsgate/internal/resolver"
	"github.com/ManuGH/hlsgate/internal/segmentproxy"
	"github.com/ManuGH/hlsgate/internal/throttle"
)

// RequestTimeout is the total, client-facing deadline for any dispatched
// request; it must stay strictly greater than every component's own
// upstream deadline (55s) so a timing-out fetch always surfaces as
// TIMEOUT from the component layer rather than the dispatcher racing it.
const RequestTimeout = 60 * time.Second

// Deps holds every component value the dispatcher injects into handlers.
// It replaces the global mutable singletons (cache, metrics, throttler)
// the original design used with explicit values held by the process root.
type Deps struct {
	HostPolicy    *hostpolicy.Policy
	Throttler     *throttle.Throttler
	Metrics       *metrics.Registry
	ManifestProxy *manifestproxy.Proxy
	SegmentProxy  *segmentproxy.Proxy
	Resolver      *resolver.Resolver

	// Version is surfaced by /proxy/status for operator visibility.
	Version string
}
