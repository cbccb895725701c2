// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
	}
	if cfg.Cache.PageSize != 20 {
		t.Errorf("Cache.PageSize = %d, want 20", cfg.Cache.PageSize)
	}
	if cfg.Catalog.MaxRetries != 2 {
		t.Errorf("Catalog.MaxRetries = %d, want 2", cfg.Catalog.MaxRetries)
	}
	if cfg.Catalog.MaxRetryDelay != 5*time.Second || cfg.Cache.FetchTimeout != 15*time.Second {
		t.Errorf("retry cap/fetch timeout = %v/%v, want 5s/15s", cfg.Catalog.MaxRetryDelay, cfg.Cache.FetchTimeout)
	}
	if cfg.Catalog.APIKey != "" {
		t.Errorf("Catalog.APIKey should have no default, got %q", cfg.Catalog.APIKey)
	}
	if cfg.Breaker.FailureThreshold != 5 || cfg.Breaker.SuccessThreshold != 2 {
		t.Errorf("Breaker thresholds = %d/%d, want 5/2", cfg.Breaker.FailureThreshold, cfg.Breaker.SuccessThreshold)
	}
	if cfg.Events.Driver != "gochannel" {
		t.Errorf("Events.Driver = %q, want gochannel", cfg.Events.Driver)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want 0.0.0.0:8080", cfg.Server.Addr())
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"TMDB_API_KEY", "catalog.api_key"},
		{"CATALOG_API_KEY", "catalog.api_key"},
		{"HTTP_PORT", "server.port"},
		{"BREAKER_OPEN_TIMEOUT", "breaker.open_timeout"},
		{"CACHE_STALE_GRACE", "cache.stale_grace"},
		{"CACHE_FETCH_TIMEOUT", "cache.fetch_timeout"},
		{"CATALOG_MAX_RETRY_DELAY", "catalog.max_retry_delay"},
		{"NATS_EMBEDDED", "events.embedded_nats"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanfEnvironment(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TMDB_API_KEY", "key-123")
	t.Setenv("CATALOG_API_KEY", "key-123")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "3")
	t.Setenv("CACHE_TTL", "12h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORE_IN_MEMORY", "true")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Catalog.APIKey != "key-123" {
		t.Errorf("Catalog.APIKey = %q", cfg.Catalog.APIKey)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Breaker.FailureThreshold != 3 {
		t.Errorf("Breaker.FailureThreshold = %d, want 3", cfg.Breaker.FailureThreshold)
	}
	if cfg.Cache.TTL != 12*time.Hour {
		t.Errorf("Cache.TTL = %v, want 12h", cfg.Cache.TTL)
	}
	if !cfg.Store.InMemory {
		t.Error("Store.InMemory should be true")
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanfFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
catalog:
  api_key: from-file
  max_pages: 5
cache:
  page_size: 10
security:
  auth_mode: header
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("CACHE_PAGE_SIZE", "15")
	t.Setenv("TMDB_API_KEY", "from-env")
	t.Setenv("CATALOG_API_KEY", "from-env")
	t.Setenv("AUTH_MODE", "header")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Catalog.APIKey != "from-env" {
		t.Errorf("env should override file: APIKey = %q, want from-env", cfg.Catalog.APIKey)
	}
	if cfg.Catalog.MaxPages != 5 {
		t.Errorf("Catalog.MaxPages = %d, want 5", cfg.Catalog.MaxPages)
	}
	if cfg.Cache.PageSize != 15 {
		t.Errorf("env should override file: PageSize = %d, want 15", cfg.Cache.PageSize)
	}
	if cfg.Security.AuthMode != "header" {
		t.Errorf("Security.AuthMode = %q, want header", cfg.Security.AuthMode)
	}
}

func TestLoadWithKoanfMissingCredentials(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("CATALOG_API_KEY", "")
	t.Setenv("JWT_SECRET", testSecret)

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("expected error for missing catalog credentials")
	}
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("error %v is not a *ConfigurationError", err)
	}
	if cerr.Key != "TMDB_API_KEY" {
		t.Errorf("ConfigurationError.Key = %q, want TMDB_API_KEY", cerr.Key)
	}
}
