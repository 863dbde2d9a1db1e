// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manifestproxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/hlsgate/internal/cors"
	"github.com/ManuGH/hlsgate/internal/httpheaders"
	"github.com/ManuGH/hlsgate/internal/metrics"
	"github.com/ManuGH/hlsgate/internal/platform/httpx"
	"github.com/ManuGH/hlsgate/internal/playlistcache"
	"github.com/ManuGH/hlsgate/internal/proxyerr"
	"github.com/ManuGH/hlsgate/internal/throttle"
	"github.com/ManuGH/hlsgate/internal/urlsafety"
)

// UpstreamTimeout is the manifest fetch deadline: strictly less than the
// client-facing request deadline so a timing-out fetch always surfaces as
// TIMEOUT rather than the client disconnecting first.
const UpstreamTimeout = 55 * time.Second

const mediaType = "application/vnd.apple.mpegurl"

// Proxy is the Manifest Proxy component (C6).
type Proxy struct {
	Cache   playlistcache.Cache
	Client  *http.Client
	Metrics *metrics.Registry
	Shaper  *throttle.HostShaper
	TTL     time.Duration
}

// New builds a Proxy with a hardened upstream client and the given cache.
func New(cache playlistcache.Cache, reg *metrics.Registry) *Proxy {
	return &Proxy{
		Cache:   cache,
		Client:  httpx.NewClient(UpstreamTimeout),
		Metrics: reg,
		Shaper:  throttle.NewHostShaper(throttle.HostShaperConfig{}),
		TTL:     playlistcache.DefaultTTL,
	}
}

// Serve fetches (or replays from cache) the manifest at upstream, rewrites
// every nested reference to route through baseURL, and writes the result
// to w with the X-Cache, content-type, and cache-control headers a
// manifest response requires, plus the CORS header set (see internal/cors),
// which Serve applies itself on success. headersQuery is the
// "&headers=..." suffix to propagate into rewritten URIs (see
// HeadersQuery); it is "" when the caller supplied none.
func (p *Proxy) Serve(ctx context.Context, w http.ResponseWriter, upstream urlsafety.CanonicalURL, caller httpheaders.Headers, baseURL, headersQuery string) *proxyerr.Error {
	key := upstream.String()
	host := upstream.Hostname()
	started := time.Now()

	if cached, ok := p.Cache.Get(key); ok {
		metrics.RecordCacheResult(true)
		writeManifestHeaders(w, "HIT")
		w.Header().Set("Content-Length", strconv.Itoa(len(cached)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		p.record(ctx, host, upstream, true, http.StatusOK, "", time.Since(started))
		return nil
	}
	metrics.RecordCacheResult(false)

	body, perr := p.fetchAndRewrite(ctx, upstream, caller, baseURL, headersQuery)
	if perr != nil {
		p.record(ctx, host, upstream, false, perr.HTTPStatus, string(perr.Code), time.Since(started))
		return perr
	}

	p.Cache.Set(key, body, p.TTL)

	writeManifestHeaders(w, "MISS")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	p.record(ctx, host, upstream, true, http.StatusOK, "", time.Since(started))
	return nil
}

func (p *Proxy) record(ctx context.Context, host string, upstream urlsafety.CanonicalURL, success bool, status int, errorCode string, dur time.Duration) {
	res := metrics.Result{
		Host:         host,
		Category:     metrics.CategoryManifest,
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

func writeManifestHeaders(w http.ResponseWriter, cacheStatus string) {
	cors.Apply(w)
	h := w.Header()
	h.Set("X-Cache", cacheStatus)
	h.Set("Content-Type", mediaType)
	h.Set("Cache-Control", "no-cache")
}

func (p *Proxy) fetchAndRewrite(ctx context.Context, upstream urlsafety.CanonicalURL, caller httpheaders.Headers, baseURL, headersQuery string) ([]byte, *proxyerr.Error) {
	fetchCtx, cancel := context.WithTimeout(ctx, UpstreamTimeout)
	defer cancel()

	if p.Shaper != nil {
		if err := p.Shaper.Wait(fetchCtx, upstream.Hostname()); err != nil {
			return nil, proxyerr.Timeout("host shaper")
		}
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, upstream.String(), nil)
	if err != nil {
		return nil, proxyerr.Internal(err)
	}

	caller.ApplyTo(req)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", httpx.DefaultUserAgent)
	}
	if repaired, ok := RepairReferer(caller.Referer(), caller.Origin()); ok {
		req.Header.Set("Referer", repaired)
	} else {
		req.Header.Del("Referer")
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, proxyerr.Timeout("manifest fetch")
		}
		return nil, proxyerr.BadGateway(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, proxyerr.FromUpstreamStatus(resp.StatusCode, upstream.Hostname())
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, proxyerr.BadGateway(err)
	}

	u := upstream.Parsed()
	rewritten := Rewrite(string(raw), u, baseURL, headersQuery)
	return []byte(rewritten), nil
}
