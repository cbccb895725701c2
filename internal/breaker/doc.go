// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package breaker wraps sony/gobreaker with a primary/fallback call shape.
//
// A Breaker never surfaces the error of the call it protects. Execute returns
// whatever the fallback returns when the primary fails or is not attempted:
//
//	items, err := b.Execute(ctx, fetchFromCatalog, func(ctx context.Context, cause error) ([]models.Candidate, error) {
//	    return readStaleCache(ctx)
//	})
//
// Trip policy: FailureThreshold consecutive failures open the breaker. After
// OpenTimeout the next call runs as a HALF_OPEN trial; SuccessThreshold
// consecutive trial successes close it and any trial failure re-opens it.
// State is process-local and starts CLOSED.
package breaker
