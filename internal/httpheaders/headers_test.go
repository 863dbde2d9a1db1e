// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpheaders

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroValue_IsReadSafe(t *testing.T) {
	var h Headers
	assert.Equal(t, "", h.Get("Referer"))
	assert.False(t, h.Has("Referer"))
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Keys())
}

func TestGet_IsCaseInsensitive(t *testing.T) {
	h := FromMap(map[string]string{"user-agent": "curl/8"})
	assert.Equal(t, "curl/8", h.Get("User-Agent"))
}

func TestFromRequest_CopiesAllHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Referer", "https://origin.example/")
	req.Header.Set("Range", "bytes=0-1023")

	h := FromRequest(req)
	assert.Equal(t, "https://origin.example/", h.Referer())
	assert.Equal(t, "bytes=0-1023", h.Range())
}

func TestMerge_OverrideWinsPerKey(t *testing.T) {
	base := FromMap(map[string]string{"Referer": "https://base.example/", "Origin": "https://base.example/"})
	override := FromMap(map[string]string{"Referer": "https://override.example/"})

	merged := Merge(base, override)
	assert.Equal(t, "https://override.example/", merged.Referer())
	assert.Equal(t, "https://base.example/", merged.Origin())
}

func TestApplyTo_SetsHeadersOnRequest(t *testing.T) {
	h := FromMap(map[string]string{"X-Custom": "value"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ApplyTo(req)
	assert.Equal(t, "value", req.Header.Get("X-Custom"))
}
