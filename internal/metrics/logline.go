// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"context"

	xglog "github.com/ManuGH/hlsgate/internal/log"
)

// LogRequest emits one structured line per terminated request: timestamp,
// sanitized URL, host, category, success flag, HTTP status, and duration
// in milliseconds. Full URLs with tokens are never logged — res.SanitizedURL
// must already have passed through urlsafety.SanitizeForLogging before
// Result is constructed.
func LogRequest(ctx context.Context, res Result) {
	l := xglog.FromContext(ctx)
	ev := l.Info()
	if !res.Success {
		ev = l.Warn()
	}

	ev.
		Str("url", res.SanitizedURL).
		Str("host", res.Host).
		Str("category", string(res.Category)).
		Bool("success", res.Success).
		Int("status", res.Status).
		Float64("duration_ms", float64(res.Duration.Microseconds())/1000.0)

	if res.ErrorCode != "" {
		ev = ev.Str("error_code", res.ErrorCode)
	}

	ev.Msg("proxy.request")
}
