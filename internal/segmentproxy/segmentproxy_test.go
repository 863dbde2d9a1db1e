// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package segmentproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/hlsgate/internal/httpheaders"
	"github.com/ManuGH/hlsgate/internal/metrics"
	"github.com/ManuGH/hlsgate/internal/urlsafety"
)

func newTestUpstream(t *testing.T, handler http.HandlerFunc) (*Proxy, urlsafety.CanonicalURL) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := New(metrics.NewRegistry())
	p.Client = srv.Client()

	upstream, err := urlsafety.Normalize(srv.URL + "/segment0.ts")
	require.NoError(t, err)
	return p, upstream
}

func TestSegmentProxy_FullBodyPassthrough(t *testing.T) {
	body := []byte("mpegts-bytes-here")
	p, upstream := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Range"))
		w.Header().Set("Content-Type", "video/mp2t")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})

	w := httptest.NewRecorder()
	perr := p.Serve(context.Background(), w, upstream, httpheaders.New(), "")
	require.Nil(t, perr)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp2t", w.Header().Get("Content-Type"))
	assert.Equal(t, body, w.Body.Bytes())
}

func TestSegmentProxy_RangeRequestForwardedAndPreserves206(t *testing.T) {
	p, upstream := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=0-99", r.Header.Get("Range"))
		w.Header().Set("Content-Range", "bytes 0-99/500")
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("partial"))
	})

	w := httptest.NewRecorder()
	perr := p.Serve(context.Background(), w, upstream, httpheaders.New(), "bytes=0-99")
	require.Nil(t, perr)
	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 0-99/500", w.Header().Get("Content-Range"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
}

func TestSegmentProxy_DefaultContentTypeWhenUpstreamOmitsIt(t *testing.T) {
	p, upstream := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("x"))
	})

	w := httptest.NewRecorder()
	perr := p.Serve(context.Background(), w, upstream, httpheaders.New(), "")
	require.Nil(t, perr)
	assert.Equal(t, defaultContentType, w.Header().Get("Content-Type"))
}

func TestSegmentProxy_UpstreamForbidden(t *testing.T) {
	p, upstream := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	w := httptest.NewRecorder()
	perr := p.Serve(context.Background(), w, upstream, httpheaders.New(), "")
	require.NotNil(t, perr)
	assert.Equal(t, http.StatusForbidden, perr.HTTPStatus)
	assert.Equal(t, "UPSTREAM_403", string(perr.Code))
}

func TestSegmentProxy_CORSAppliedBeforeContentHeaders(t *testing.T) {
	p, upstream := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("x"))
	})

	w := httptest.NewRecorder()
	perr := p.Serve(context.Background(), w, upstream, httpheaders.New(), "")
	require.Nil(t, perr)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
