// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package catalog is the client for the upstream movie catalog (the TMDB
// discover API).
//
// Fetch turns room filters into discover requests: logical genre names are
// mapped to TMDB ids for the media type (GenreIDs), pages are read until
// enough distinct valid items exist, and items missing any required field are
// dropped. Requests are spaced by a token-bucket limiter and HTTP 429 is
// retried with exponential backoff.
//
// The client does not fall back on its own. Every failure is returned wrapped
// in models.ErrUpstreamUnavailable so the caller's circuit breaker can count
// it; the supply cache owns the fallback chain.
package catalog
