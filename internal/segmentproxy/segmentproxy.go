// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package segmentproxy implements the Segment Proxy component (C7): a
// range-aware streaming pass-through for media segments and encryption
// keys. The upstream body is piped directly to the client; it is never
// read into memory in full.
package segmentproxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/hlsgate/internal/cors"
	"github.com/ManuGH/hlsgate/internal/httpheaders"
	"github.com/ManuGH/hlsgate/internal/metrics"
	"github.com/ManuGH/hlsgate/internal/platform/httpx"
	"github.com/ManuGH/hlsgate/internal/proxyerr"
	"github.com/ManuGH/hlsgate/internal/throttle"
	"github.com/ManuGH/hlsgate/internal/urlsafety"
)

// UpstreamTimeout bounds the segment fetch, same deadline as the manifest
// fetch: strictly less than the client-facing request deadline.
const UpstreamTimeout = 55 * time.Second

const defaultContentType = "video/mp2t"

// Proxy is the Segment Proxy component (C7).
type Proxy struct {
	Client  *http.Client
	Metrics *metrics.Registry
	Shaper  *throttle.HostShaper
}

// New builds a Proxy with a hardened upstream client.
func New(reg *metrics.Registry) *Proxy {
	return &Proxy{
		Client:  httpx.NewClient(UpstreamTimeout),
		Metrics: reg,
		Shaper:  throttle.NewHostShaper(throttle.HostShaperConfig{}),
	}
}

// Serve streams the segment at upstream to w. rangeHeader is the client's
// verbatim Range header value, or "" when absent. CORS headers are emitted
// before any content header, per the streaming contract. Once headers are
// written a body-copy failure cannot change the already-sent status; Serve
// returns nil in that case since the response has already begun.
func (p *Proxy) Serve(ctx context.Context, w http.ResponseWriter, upstream urlsafety.CanonicalURL, caller httpheaders.Headers, rangeHeader string) *proxyerr.Error {
	started := time.Now()
	host := upstream.Hostname()

	fetchCtx, cancel := context.WithTimeout(ctx, UpstreamTimeout)
	defer cancel()

	if p.Shaper != nil {
		if err := p.Shaper.Wait(fetchCtx, host); err != nil {
			perr := proxyerr.Timeout("host shaper")
			p.record(ctx, host, upstream, false, perr.HTTPStatus, string(perr.Code), time.Since(started))
			return perr
		}
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, upstream.String(), nil)
	if err != nil {
		perr := proxyerr.Internal(err)
		p.record(ctx, host, upstream, false, perr.HTTPStatus, string(perr.Code), time.Since(started))
		return perr
	}

	caller.ApplyTo(req)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", httpx.DefaultUserAgent)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		var perr *proxyerr.Error
		if errors.Is(err, context.DeadlineExceeded) {
			perr = proxyerr.Timeout("segment fetch")
		} else {
			perr = proxyerr.BadGateway(err)
		}
		p.record(ctx, host, upstream, false, perr.HTTPStatus, string(perr.Code), time.Since(started))
		return perr
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		perr := proxyerr.FromUpstreamStatus(resp.StatusCode, host)
		p.record(ctx, host, upstream, false, perr.HTTPStatus, string(perr.Code), time.Since(started))
		return perr
	}

	cors.Apply(w)
	h := w.Header()
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	h.Set("Content-Type", contentType)
	if v := resp.Header.Get("Content-Length"); v != "" {
		h.Set("Content-Length", v)
	}
	if v := resp.Header.Get("Content-Range"); v != "" {
		h.Set("Content-Range", v)
	}
	if v := resp.Header.Get("Accept-Ranges"); v != "" {
		h.Set("Accept-Ranges", v)
	}

	status := http.StatusOK
	if resp.StatusCode == http.StatusPartialContent {
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	_, copyErr := io.Copy(w, resp.Body)
	success := copyErr == nil
	errorCode := ""
	if copyErr != nil {
		errorCode = string(proxyerr.CodeError)
	}
	p.record(ctx, host, upstream, success, status, errorCode, time.Since(started))
	return nil
}

func (p *Proxy) record(ctx context.Context, host string, upstream urlsafety.CanonicalURL, success bool, status int, errorCode string, dur time.Duration) {
	res := metrics.Result{
		Host:         host,
		Category:     metrics.CategorySegment,
		Success:      success,
		Status:       status,
		Duration:     dur,
		ErrorCode:    errorCode,
		SanitizedURL: urlsafety.SanitizeForLogging(upstream.String()),
	}
	if p.Metrics != nil {
		p.Metrics.Record(res)
	}
	metrics.LogRequest(ctx, res)
}
