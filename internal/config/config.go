// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package config

import (
	"fmt"
	"time"
)

// Config is the complete runtime configuration. Every component receives the
// section it needs through its constructor; nothing below cmd/server reads the
// environment.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Cache      CacheConfig      `koanf:"cache"`
	Store      StoreConfig      `koanf:"store"`
	Events     EventsConfig     `koanf:"events"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig configures the upstream movie catalog (TMDB discover API).
type CatalogConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Language       string        `koanf:"language"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// MinInterval is the minimum spacing between two outgoing requests.
	MinInterval    time.Duration `koanf:"min_interval"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	// MaxRetryDelay caps one 429 backoff. A longer Retry-After fails the call.
	MaxRetryDelay time.Duration `koanf:"max_retry_delay"`
	MaxPages      int           `koanf:"max_pages"`
}

// BreakerConfig holds the circuit breaker parameters for the catalog.
type BreakerConfig struct {
	// FailureThreshold is F: consecutive failures in CLOSED before opening.
	FailureThreshold uint32 `koanf:"failure_threshold"`
	// SuccessThreshold is S: consecutive HALF_OPEN successes before closing.
	SuccessThreshold uint32 `koanf:"success_threshold"`
	// OpenTimeout is T: dwell time in OPEN before a trial call.
	OpenTimeout time.Duration `koanf:"open_timeout"`
	// ResetWindow is R: period after which CLOSED failure counts are cleared.
	ResetWindow time.Duration `koanf:"reset_window"`
}

// CacheConfig controls the content supply cache.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl"`
	StaleGrace time.Duration `koanf:"stale_grace"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	PageSize   int           `koanf:"page_size"`
	// FetchTimeout bounds one catalog fetch including every page and retry.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// StoreConfig configures the Badger store.
type StoreConfig struct {
	Path          string        `koanf:"path"`
	InMemory      bool          `koanf:"in_memory"`
	GCInterval    time.Duration `koanf:"gc_interval"`
	GCDiscard     float64       `koanf:"gc_discard_ratio"`
	SeedFile      string        `koanf:"seed_file"`
	TxnRetries    int           `koanf:"txn_retries"`
	SyncWrites    bool          `koanf:"sync_writes"`
	ActivityLimit int           `koanf:"activity_limit"`
}

// EventsConfig selects the watermill transport for observer events.
type EventsConfig struct {
	// Driver is "gochannel" (in-process) or "nats".
	Driver       string `koanf:"driver"`
	NATSURL      string `koanf:"nats_url"`
	EmbeddedNATS bool   `koanf:"embedded_nats"`
	EmbeddedPort int    `koanf:"embedded_port"`
	Buffer       int64  `koanf:"buffer"`
	TopicPrefix  string `koanf:"topic_prefix"`
}

// SecurityConfig covers caller identification and request throttling.
type SecurityConfig struct {
	// AuthMode is "jwt" (bearer token, user id in sub) or "header" (X-User-ID, development only).
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture tree and periodic maintenance.
type SupervisorConfig struct {
	FailureThreshold  float64       `koanf:"failure_threshold"`
	FailureDecay      float64       `koanf:"failure_decay"`
	FailureBackoff    time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	ReconcileInterval time.Duration `koanf:"reconcile_interval"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
