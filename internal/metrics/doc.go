// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package metrics declares Trinity's Prometheus collectors.
//
// Collectors are registered on the default registry through promauto and
// exposed by the HTTP server at /metrics. Components update them directly
// (metrics.MatchesTotal.Inc()) or through the small Record helpers.
package metrics
