// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/trinity/internal/metrics"
)

// RunGC rewrites value-log files until Badger reports nothing left to
// reclaim, and returns how many files were rewritten. In-memory stores have
// no value log and return immediately.
func (s *Store) RunGC(ctx context.Context, discardRatio float64) (int, error) {
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}
	if s.db.Opts().InMemory {
		metrics.StoreGCRuns.WithLabelValues("noop").Inc()
		return 0, nil
	}

	rewritten := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			metrics.StoreGCRuns.WithLabelValues("error").Inc()
			return rewritten, fmt.Errorf("run value log GC: %w", err)
		}
		rewritten++
	}

	if rewritten == 0 {
		metrics.StoreGCRuns.WithLabelValues("noop").Inc()
	} else {
		metrics.StoreGCRuns.WithLabelValues("rewritten").Inc()
	}
	return rewritten, nil
}
