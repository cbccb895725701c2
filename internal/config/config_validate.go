// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ConfigurationError reports an invalid or missing setting. It is fatal: the
// process refuses to start rather than run against a broken dependency.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

func configErr(key, format string, args ...interface{}) error {
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every section and returns the first ConfigurationError found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateCatalog,
		c.validateBreaker,
		c.validateCache,
		c.validateStore,
		c.validateEvents,
		c.validateSecurity,
		c.validateLogging,
		c.validateSupervisor,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return configErr("HTTP_PORT", "must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if strings.TrimSpace(c.Catalog.APIKey) == "" {
		return configErr("TMDB_API_KEY", "catalog credentials are required")
	}
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return configErr("CATALOG_URL", "must be an absolute http(s) URL, got %q", c.Catalog.BaseURL)
	}
	if c.Catalog.RequestTimeout <= 0 || c.Catalog.RequestTimeout > time.Minute {
		return configErr("CATALOG_TIMEOUT", "must be between 1ns and 1m")
	}
	if c.Catalog.MinInterval < 0 {
		return configErr("CATALOG_MIN_INTERVAL", "must not be negative")
	}
	if c.Catalog.MaxRetries < 0 || c.Catalog.MaxRetries > 10 {
		return configErr("CATALOG_MAX_RETRIES", "must be between 0 and 10")
	}
	if c.Catalog.MaxRetryDelay <= 0 || c.Catalog.MaxRetryDelay > time.Minute {
		return configErr("CATALOG_MAX_RETRY_DELAY", "must be between 1ns and 1m")
	}
	if c.Catalog.MaxPages < 1 || c.Catalog.MaxPages > 20 {
		return configErr("CATALOG_MAX_PAGES", "must be between 1 and 20")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.FailureThreshold == 0 {
		return configErr("BREAKER_FAILURE_THRESHOLD", "must be at least 1")
	}
	if c.Breaker.SuccessThreshold == 0 {
		return configErr("BREAKER_SUCCESS_THRESHOLD", "must be at least 1")
	}
	if c.Breaker.OpenTimeout <= 0 {
		return configErr("BREAKER_OPEN_TIMEOUT", "must be positive")
	}
	if c.Breaker.ResetWindow < 0 {
		return configErr("BREAKER_RESET_WINDOW", "must not be negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return configErr("CACHE_TTL", "must be positive")
	}
	if c.Cache.StaleGrace < 0 {
		return configErr("CACHE_STALE_GRACE", "must not be negative")
	}
	if c.Cache.DefaultTTL <= 0 {
		return configErr("CACHE_DEFAULT_TTL", "must be positive")
	}
	if c.Cache.PageSize < 1 || c.Cache.PageSize > 100 {
		return configErr("CACHE_PAGE_SIZE", "must be between 1 and 100")
	}
	if c.Cache.FetchTimeout <= 0 || c.Cache.FetchTimeout > 5*time.Minute {
		return configErr("CACHE_FETCH_TIMEOUT", "must be between 1ns and 5m")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return configErr("STORE_PATH", "is required unless STORE_IN_MEMORY=true")
	}
	if c.Store.GCDiscard <= 0 || c.Store.GCDiscard >= 1 {
		return configErr("STORE_GC_DISCARD_RATIO", "must be in (0, 1)")
	}
	if c.Store.TxnRetries < 1 {
		return configErr("STORE_TXN_RETRIES", "must be at least 1")
	}
	return nil
}

var validEventDrivers = map[string]bool{
	"gochannel": true,
	"nats":      true,
}

func (c *Config) validateEvents() error {
	if !validEventDrivers[c.Events.Driver] {
		return configErr("EVENTS_DRIVER", "must be one of: gochannel, nats")
	}
	if c.Events.Driver == "nats" && !c.Events.EmbeddedNATS && c.Events.NATSURL == "" {
		return configErr("NATS_URL", "is required when EVENTS_DRIVER=nats without an embedded server")
	}
	if c.Events.TopicPrefix == "" {
		return configErr("EVENTS_TOPIC_PREFIX", "must not be empty")
	}
	return nil
}

const minJWTSecretLength = 32

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return configErr("JWT_SECRET", "must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
		}
	case "header":
	default:
		return configErr("AUTH_MODE", "must be one of: jwt, header")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return configErr("RATE_LIMIT_REQUESTS", "must be between 1 and 100000")
	}
	if c.Security.RateLimitWindow < time.Second || c.Security.RateLimitWindow > time.Hour {
		return configErr("RATE_LIMIT_WINDOW", "must be between 1s and 1h")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "disabled": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return configErr("LOG_LEVEL", "unknown level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return configErr("LOG_FORMAT", "must be json or console")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.ReconcileInterval < time.Second {
		return configErr("RECONCILE_INTERVAL", "must be at least 1s")
	}
	return nil
}
