// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/hlsgate/internal/hostpolicy"
	"github.com/ManuGH/hlsgate/internal/httpheaders"
)

func allowAllPolicy() *hostpolicy.Policy {
	return hostpolicy.New(hostpolicy.WithAllowlist(nil))
}

func TestResolver_TextualM3U8AcceptedWithoutProbe(t *testing.T) {
	r := New(allowAllPolicy())
	got, perr := r.Resolve(context.Background(), "https://origin.example/live/index.m3u8", httpheaders.New())
	require.Nil(t, perr)
	assert.Equal(t, "https://origin.example/live/index.m3u8", got.String())
}

func TestResolver_OrAlternatives_FirstFailsSecondSucceeds(t *testing.T) {
	r := New(allowAllPolicy())
	input := "not a url at all or https://origin.example/live/index.m3u8"
	got, perr := r.Resolve(context.Background(), input, httpheaders.New())
	require.Nil(t, perr)
	assert.Equal(t, "https://origin.example/live/index.m3u8", got.String())
}

func TestResolver_PipeAlternatives(t *testing.T) {
	r := New(allowAllPolicy())
	input := "https://bad.invalid/%zz|https://origin.example/live/index.m3u8"
	got, perr := r.Resolve(context.Background(), input, httpheaders.New())
	require.Nil(t, perr)
	assert.Equal(t, "https://origin.example/live/index.m3u8", got.String())
}

func TestResolver_JSONObjectFieldExtraction(t *testing.T) {
	r := New(allowAllPolicy())
	input := `{"title":"demo","stream":"https://origin.example/live/index.m3u8"}`
	got, perr := r.Resolve(context.Background(), input, httpheaders.New())
	require.Nil(t, perr)
	assert.Equal(t, "https://origin.example/live/index.m3u8", got.String())
}

func TestResolver_NonM3U8_ProbeConfirmsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(allowAllPolicy())
	r.Client = srv.Client()

	got, perr := r.Resolve(context.Background(), srv.URL+"/stream", httpheaders.New())
	require.Nil(t, perr)
	assert.Equal(t, srv.URL+"/stream", got.String())
}

func TestResolver_NonM3U8_NoOtherCandidates_FallsBackToFirstMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(allowAllPolicy())
	r.Client = srv.Client()

	got, perr := r.Resolve(context.Background(), srv.URL+"/stream", httpheaders.New())
	require.Nil(t, perr)
	assert.Equal(t, srv.URL+"/stream", got.String())
}

func TestResolver_HostNotAllowed(t *testing.T) {
	r := New(hostpolicy.New(hostpolicy.WithAllowlist([]string{"allowed.example"})))
	_, perr := r.Resolve(context.Background(), "https://blocked.example/index.m3u8", httpheaders.New())
	require.NotNil(t, perr)
	assert.Equal(t, "HOST_NOT_ALLOWED", string(perr.Code))
}

func TestResolver_EmptyInput(t *testing.T) {
	r := New(allowAllPolicy())
	_, perr := r.Resolve(context.Background(), "   ", httpheaders.New())
	require.NotNil(t, perr)
	assert.Equal(t, "URL_MALFORMED", string(perr.Code))
}

func TestResolver_NoURLFound(t *testing.T) {
	r := New(allowAllPolicy())
	_, perr := r.Resolve(context.Background(), "this has no link in it", httpheaders.New())
	require.NotNil(t, perr)
	assert.Equal(t, "URL_MALFORMED", string(perr.Code))
}
