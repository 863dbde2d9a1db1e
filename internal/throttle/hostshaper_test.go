// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostShaper_AdmitsWithinBurst(t *testing.T) {
	s := NewHostShaper(HostShaperConfig{RatePerSecond: 10, Burst: 3})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Wait(ctx, "origin.example"))
	}
}

func TestHostShaper_PerHostIndependence(t *testing.T) {
	s := NewHostShaper(HostShaperConfig{RatePerSecond: 1, Burst: 1})
	ctx := context.Background()

	require.NoError(t, s.Wait(ctx, "a.example"))
	require.NoError(t, s.Wait(ctx, "b.example"), "a separate host should have its own bucket")
}

func TestHostShaper_BlocksPastBurstUntilDeadline(t *testing.T) {
	s := NewHostShaper(HostShaperConfig{RatePerSecond: 1, Burst: 1})
	ctx := context.Background()
	require.NoError(t, s.Wait(ctx, "origin.example"))

	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := s.Wait(shortCtx, "origin.example")
	assert.Error(t, err, "second request should block past the exhausted burst and time out")
}

func TestDefaultHostShaperConfig_AppliedWhenZero(t *testing.T) {
	s := NewHostShaper(HostShaperConfig{})
	assert.Equal(t, DefaultHostShaperConfig().RatePerSecond, s.cfg.RatePerSecond)
}
