// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package config loads Trinity's configuration with koanf.
//
// Sources are layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file: CONFIG_PATH, else config.yaml / /etc/trinity/config.yaml
//  3. Environment variables listed in envMappings (TMDB_API_KEY, HTTP_PORT, ...)
//
// Validate returns a *ConfigurationError naming the offending variable. The
// catalog API key has no default, so a deployment without credentials fails
// at startup instead of silently serving the built-in fallback list forever.
package config
