// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the gateway's runtime configuration from the
// environment, with defaults for every field and an optional YAML overlay
// for the host allowlist and per-host header templates. Precedence is
// environment variable over file over built-in default.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/hlsgate/internal/log"
)

// Config is the gateway's fully resolved runtime configuration.
type Config struct {
	// Port is the listen port for the HTTP server ($PORT).
	Port int

	// AllowedHosts is the Host Policy allowlist. Empty means allow any host.
	AllowedHosts []string

	// HostHeaderTemplates maps a hostname/suffix to default upstream headers.
	HostHeaderTemplates map[string]map[string]string

	// TMDBAPIKey is read through for the out-of-scope metadata sibling this
	// gateway is typically deployed alongside; the gateway itself never
	// reads it.
	TMDBAPIKey string

	PlaylistCacheCapacity      int
	PlaylistCacheTTL           time.Duration
	PlaylistCacheSweepInterval time.Duration
	RedisAddr                  string
	RedisPassword              string
	RedisDB                    int
	RedisKeyPrefix             string

	ThrottleWindow        time.Duration
	ThrottleMaxRequests   int
	ThrottleSweepInterval time.Duration

	HostShaperRatePerSecond float64
	HostShaperBurst         int

	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration

	LogLevel string
}

// hostTemplateFile is the shape of the optional YAML overlay.
type hostTemplateFile struct {
	AllowedHosts []string                     `yaml:"allowedHosts"`
	HostHeaders  map[string]map[string]string `yaml:"hostHeaders"`
}

// Load builds a Config from environment variables, merging in an optional
// YAML file named by $HLSGATE_HOSTS_FILE when present. Environment values
// always win over anything the file sets.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                       parseInt("PORT", 8080),
		AllowedHosts:               parseStringList("HLSGATE_ALLOWED_HOSTS"),
		HostHeaderTemplates:        map[string]map[string]string{},
		TMDBAPIKey:                 parseString("TMDB_API_KEY", ""),
		PlaylistCacheCapacity:      parseInt("HLSGATE_CACHE_CAPACITY", 2000),
		PlaylistCacheTTL:           parseDuration("HLSGATE_CACHE_TTL", 30*time.Second),
		PlaylistCacheSweepInterval: parseDuration("HLSGATE_CACHE_SWEEP_INTERVAL", 10*time.Second),
		RedisAddr:                  parseString("HLSGATE_REDIS_ADDR", ""),
		RedisPassword:              parseString("HLSGATE_REDIS_PASSWORD", ""),
		RedisDB:                    parseInt("HLSGATE_REDIS_DB", 0),
		RedisKeyPrefix:             parseString("HLSGATE_REDIS_PREFIX", "hlsgate:playlist:"),
		ThrottleWindow:             parseDuration("HLSGATE_THROTTLE_WINDOW", 60*time.Second),
		ThrottleMaxRequests:        parseInt("HLSGATE_THROTTLE_MAX_REQUESTS", 120),
		ThrottleSweepInterval:      parseDuration("HLSGATE_THROTTLE_SWEEP_INTERVAL", 30*time.Second),
		HostShaperRatePerSecond:    parseFloat("HLSGATE_HOST_SHAPER_RATE", 20),
		HostShaperBurst:            parseInt("HLSGATE_HOST_SHAPER_BURST", 40),
		RequestTimeout:             parseDuration("HLSGATE_REQUEST_TIMEOUT", 60*time.Second),
		UpstreamTimeout:            parseDuration("HLSGATE_UPSTREAM_TIMEOUT", 55*time.Second),
		LogLevel:                   parseString("LOG_LEVEL", "info"),
	}

	if path := parseString("HLSGATE_HOSTS_FILE", ""); path != "" {
		if err := mergeHostsFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config: loading hosts file %q: %w", path, err)
		}
	}

	return cfg, nil
}

// mergeHostsFile merges a YAML overlay into cfg. Environment-set
// AllowedHosts take precedence over the file's list entirely (not
// element-wise); the file only fills in values the environment left empty.
func mergeHostsFile(cfg *Config, path string) error {
	logger := log.WithComponent("config")

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file hostTemplateFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = file.AllowedHosts
	}
	for host, headers := range file.HostHeaders {
		cfg.HostHeaderTemplates[host] = headers
	}

	logger.Info().Str("path", path).Int("hosts", len(file.AllowedHosts)).Msg("merged host overlay file")
	return nil
}
