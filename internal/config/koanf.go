// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trinity/config.yaml",
	"/etc/trinity/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			APIKey:         "",
			Language:       "en-US",
			RequestTimeout: 5 * time.Second,
			MinInterval:    100 * time.Millisecond,
			MaxRetries:     2,
			RetryBaseDelay: 500 * time.Millisecond,
			MaxRetryDelay:  5 * time.Second,
			MaxPages:       3,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			OpenTimeout:      30 * time.Second,
			ResetWindow:      time.Minute,
		},
		Cache: CacheConfig{
			TTL:          24 * time.Hour,
			StaleGrace:   7 * 24 * time.Hour,
			DefaultTTL:   time.Hour,
			PageSize:     20,
			FetchTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Path:          "/data/trinity",
			InMemory:      false,
			GCInterval:    10 * time.Minute,
			GCDiscard:     0.5,
			SeedFile:      "",
			TxnRetries:    10,
			SyncWrites:    false,
			ActivityLimit: 50,
		},
		Events: EventsConfig{
			Driver:       "gochannel",
			NATSURL:      "nats://127.0.0.1:4222",
			EmbeddedNATS: false,
			EmbeddedPort: 4222,
			Buffer:       256,
			TopicPrefix:  "trinity",
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold:  5,
			FailureDecay:      30,
			FailureBackoff:    15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			ReconcileInterval: time.Minute,
		},
	}
}

// LoadWithKoanf layers defaults, the config file and environment variables
// (highest priority wins) and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single env string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"http_idle_timeout":  "server.idle_timeout",

	"catalog_url":              "catalog.base_url",
	"tmdb_api_key":             "catalog.api_key",
	"catalog_api_key":          "catalog.api_key",
	"catalog_language":         "catalog.language",
	"catalog_timeout":          "catalog.request_timeout",
	"catalog_min_interval":     "catalog.min_interval",
	"catalog_max_retries":      "catalog.max_retries",
	"catalog_retry_base_delay": "catalog.retry_base_delay",
	"catalog_max_retry_delay":  "catalog.max_retry_delay",
	"catalog_max_pages":        "catalog.max_pages",

	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_success_threshold": "breaker.success_threshold",
	"breaker_open_timeout":      "breaker.open_timeout",
	"breaker_reset_window":      "breaker.reset_window",

	"cache_ttl":           "cache.ttl",
	"cache_stale_grace":   "cache.stale_grace",
	"cache_default_ttl":   "cache.default_ttl",
	"cache_page_size":     "cache.page_size",
	"cache_fetch_timeout": "cache.fetch_timeout",

	"store_path":             "store.path",
	"store_in_memory":        "store.in_memory",
	"store_gc_interval":      "store.gc_interval",
	"store_gc_discard_ratio": "store.gc_discard_ratio",
	"store_seed_file":        "store.seed_file",
	"store_txn_retries":      "store.txn_retries",
	"store_sync_writes":      "store.sync_writes",
	"activity_limit":         "store.activity_limit",

	"events_driver":       "events.driver",
	"nats_url":            "events.nats_url",
	"nats_embedded":       "events.embedded_nats",
	"nats_embedded_port":  "events.embedded_port",
	"events_buffer":       "events.buffer",
	"events_topic_prefix": "events.topic_prefix",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
	"reconcile_interval":           "supervisor.reconcile_interval",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
