// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Catalog.APIKey = "key"
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing api key", func(c *Config) { c.Catalog.APIKey = " " }, "TMDB_API_KEY"},
		{"relative catalog url", func(c *Config) { c.Catalog.BaseURL = "/v3" }, "CATALOG_URL"},
		{"zero timeout", func(c *Config) { c.Catalog.RequestTimeout = 0 }, "CATALOG_TIMEOUT"},
		{"too many retries", func(c *Config) { c.Catalog.MaxRetries = 11 }, "CATALOG_MAX_RETRIES"},
		{"zero retry delay cap", func(c *Config) { c.Catalog.MaxRetryDelay = 0 }, "CATALOG_MAX_RETRY_DELAY"},
		{"retry delay cap over a minute", func(c *Config) { c.Catalog.MaxRetryDelay = time.Hour }, "CATALOG_MAX_RETRY_DELAY"},
		{"zero failure threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }, "BREAKER_FAILURE_THRESHOLD"},
		{"zero success threshold", func(c *Config) { c.Breaker.SuccessThreshold = 0 }, "BREAKER_SUCCESS_THRESHOLD"},
		{"zero open timeout", func(c *Config) { c.Breaker.OpenTimeout = 0 }, "BREAKER_OPEN_TIMEOUT"},
		{"zero page size", func(c *Config) { c.Cache.PageSize = 0 }, "CACHE_PAGE_SIZE"},
		{"zero fetch timeout", func(c *Config) { c.Cache.FetchTimeout = 0 }, "CACHE_FETCH_TIMEOUT"},
		{"no store path", func(c *Config) { c.Store.Path = "" }, "STORE_PATH"},
		{"in-memory store without path", func(c *Config) { c.Store.Path = ""; c.Store.InMemory = true }, ""},
		{"bad discard ratio", func(c *Config) { c.Store.GCDiscard = 1 }, "STORE_GC_DISCARD_RATIO"},
		{"unknown driver", func(c *Config) { c.Events.Driver = "kafka" }, "EVENTS_DRIVER"},
		{"nats without url", func(c *Config) { c.Events.Driver = "nats"; c.Events.NATSURL = "" }, "NATS_URL"},
		{"embedded nats without url", func(c *Config) {
			c.Events.Driver = "nats"
			c.Events.NATSURL = ""
			c.Events.EmbeddedNATS = true
		}, ""},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "JWT_SECRET"},
		{"header mode needs no secret", func(c *Config) { c.Security.AuthMode = "header"; c.Security.JWTSecret = "" }, ""},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"rate window too small", func(c *Config) { c.Security.RateLimitWindow = time.Millisecond }, "RATE_LIMIT_WINDOW"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"tiny reconcile interval", func(c *Config) { c.Supervisor.ReconcileInterval = time.Millisecond }, "RECONCILE_INTERVAL"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() error = %v, want *ConfigurationError", err)
			}
			if cerr.Key != tt.wantKey {
				t.Errorf("ConfigurationError.Key = %q, want %q", cerr.Key, tt.wantKey)
			}
		})
	}
}
