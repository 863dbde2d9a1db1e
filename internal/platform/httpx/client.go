// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package httpx builds the hardened *http.Client the proxy uses for every
// upstream fetch (manifest GET, segment GET, resolver HEAD probe).
package httpx

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultDialTimeout           = 5 * time.Second
	defaultResponseHeaderTimeout = 10 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 100
	defaultMaxIdleConnsPerHost   = 16
)

// NewClient returns an *http.Client whose overall request deadline is
// timeout (manifest and segment fetches use 55s, the resolver's HEAD probe
// uses 5s). The transport never follows environment proxies blindly for
// upstream media fetches — callers that need outbound proxy support should
// configure ProxyFromEnvironment explicitly by policy.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          defaultMaxIdleConns,
			MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   defaultDialTimeout,
			ResponseHeaderTimeout: defaultResponseHeaderTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		},
	}
}

// DefaultUserAgent is applied to every upstream request unless the caller
// (or a host policy template) overrides it.
const DefaultUserAgent = "hlsgate/1.0 (+https://github.com/ManuGH/hlsgate)"
