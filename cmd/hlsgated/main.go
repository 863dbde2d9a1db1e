// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/hlsgate/internal/api"
	"github.com/ManuGH/hlsgate/internal/config"
	"github.com/ManuGH/hlsgate/internal/hostpolicy"
	xglog "github.com/ManuGH/hlsgate/internal/log"
	"github.com/ManuGH/hlsgate/internal/manifestproxy"
	"github.com/ManuGH/hlsgate/internal/metrics"
	"github.com/ManuGH/hlsgate/internal/playlistcache"
	"github.com/ManuGH/hlsgate/internal/resolver"
	"github.com/ManuGH/hlsgate/internal/segmentproxy"
	"github.com/ManuGH/hlsgate/internal/throttle"
	"github.com/rs/zerolog"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hlsgated: config: %v\n", err)
		os.Exit(1)
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "hlsgate", Version: version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, cacheCloser := buildPlaylistCache(cfg, logger)
	if cacheCloser != nil {
		defer cacheCloser()
	}

	policy := hostpolicy.New(
		hostpolicy.WithAllowlist(cfg.AllowedHosts),
		templateOptions(cfg.HostHeaderTemplates)...,
	)

	reg := metrics.NewRegistry()

	th := throttle.New(throttle.Config{
		Window:        cfg.ThrottleWindow,
		MaxRequests:   cfg.ThrottleMaxRequests,
		SweepInterval: cfg.ThrottleSweepInterval,
	})
	defer th.Stop()

	manifestProxy := manifestproxy.New(cache, reg)
	manifestProxy.Shaper = throttle.NewHostShaper(throttle.HostShaperConfig{
		RatePerSecond: cfg.HostShaperRatePerSecond,
		Burst:         cfg.HostShaperBurst,
	})

	segmentProxy := segmentproxy.New(reg)
	segmentProxy.Shaper = manifestProxy.Shaper

	res := resolver.New(policy)

	srv := api.NewServer(api.Deps{
		HostPolicy:    policy,
		Throttler:     th,
		Metrics:       reg,
		ManifestProxy: manifestProxy,
		SegmentProxy:  segmentProxy,
		Resolver:      res,
		Version:       version,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: api.RequestTimeout + 5*time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("hlsgate listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("server error")
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

// buildPlaylistCache selects the Redis-backed cache when
// $HLSGATE_REDIS_ADDR is configured, falling back to the in-memory
// default. The returned closer stops the background janitor (memory
// cache) or closes the connection pool (Redis cache).
func buildPlaylistCache(cfg *config.Config, logger zerolog.Logger) (playlistcache.Cache, func()) {
	if cfg.RedisAddr == "" {
		cache := playlistcache.New(cfg.PlaylistCacheCapacity, cfg.PlaylistCacheSweepInterval)
		return cache, func() { playlistcache.Stop(cache) }
	}

	cache, err := playlistcache.NewRedisCache(playlistcache.RedisConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.RedisKeyPrefix,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("redis playlist cache unavailable, falling back to in-memory")
		mem := playlistcache.New(cfg.PlaylistCacheCapacity, cfg.PlaylistCacheSweepInterval)
		return mem, func() { playlistcache.Stop(mem) }
	}

	redisCache := cache.(*playlistcache.RedisCache)
	return cache, func() { _ = redisCache.Close() }
}

// templateOptions builds one hostpolicy.WithHeaderTemplate option per
// configured host.
func templateOptions(templates map[string]map[string]string) []hostpolicy.Option {
	opts := make([]hostpolicy.Option, 0, len(templates))
	for host, headers := range templates {
		opts = append(opts, hostpolicy.WithHeaderTemplate(host, headers))
	}
	return opts
}
