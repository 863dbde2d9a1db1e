// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package throttle

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottler_ScenarioFourRequests(t *testing.T) {
	th := New(Config{Window: 60 * time.Second, MaxRequests: 3})
	defer th.Stop()

	base := time.Unix(0, 0)
	times := []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}

	var lastAllowed bool
	var lastRetryAfter int
	for _, d := range times {
		lastAllowed, lastRetryAfter = th.Allow("client-1", base.Add(d))
	}

	assert.False(t, lastAllowed)
	assert.Equal(t, 60, lastRetryAfter)
}

func TestThrottler_WindowSlides(t *testing.T) {
	th := New(Config{Window: 100 * time.Millisecond, MaxRequests: 2})
	defer th.Stop()

	base := time.Now()
	allowed, _ := th.Allow("c", base)
	require.True(t, allowed)
	allowed, _ = th.Allow("c", base.Add(10*time.Millisecond))
	require.True(t, allowed)
	allowed, _ = th.Allow("c", base.Add(20*time.Millisecond))
	require.False(t, allowed, "third request within window should be rejected")

	allowed, _ = th.Allow("c", base.Add(150*time.Millisecond))
	assert.True(t, allowed, "request after window should be admitted")
}

func TestThrottler_InvariantTimestampsWithinWindow(t *testing.T) {
	th := New(Config{Window: 50 * time.Millisecond, MaxRequests: 5})
	defer th.Stop()

	now := time.Now()
	for i := 0; i < 10; i++ {
		th.Allow("c", now.Add(time.Duration(i)*10*time.Millisecond))
	}

	r := th.getRecord("c")
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.LessOrEqual(t, len(r.timestamps), 5)
}

func TestClientID_Precedence(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", " 1.2.3.4 , 5.6.7.8")
	req.Header.Set("X-Real-IP", "9.9.9.9")
	assert.Equal(t, "1.2.3.4", ClientID(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "9.9.9.9", ClientID(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "10.0.0.5", ClientID(req))

	req.RemoteAddr = "not-a-host-port"
	assert.Equal(t, "not-a-host-port", ClientID(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", ClientID(req))
}
