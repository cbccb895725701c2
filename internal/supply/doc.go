// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package supply provides the candidate pool for a room.
//
// Lookups are cache-aside over the store's cache entries. A miss queries the
// catalog through a circuit breaker named "catalog"; the result is cached
// under the requested key and under a filter key shared by rooms with the
// same media type and genres. When the catalog fails, or the breaker is
// open, the service degrades in two tiers:
//
//  1. the filter entry, even if expired, provided it is within stale_grace
//  2. a built-in default list, cached under the requested key for default_ttl
//
// Only store failures reach the caller.
package supply
