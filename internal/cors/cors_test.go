// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_SetsFixedHeaderSet(t *testing.T) {
	w := httptest.NewRecorder()
	Apply(w)

	assert.Equal(t, AllowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, AllowMethods, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, AllowHeaders, w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, ExposeHeaders, w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, AllowCredentials, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, MaxAge, w.Header().Get("Access-Control-Max-Age"))
}

func TestHandlePreflight_Returns204WithCORSHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	HandlePreflight(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, AllowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
}
