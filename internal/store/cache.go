// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/models"
)

// GetCacheEntry returns the entry stored under key whether or not it has
// expired; freshness is the caller's decision. ErrCacheMiss when absent.
func (s *Store) GetCacheEntry(ctx context.Context, key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := s.view(ctx, func(txn *badger.Txn) error {
		err := getJSON(txn, cacheKey(key), &entry)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCacheMiss
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutCacheEntry writes entry under its key, replacing any previous entry.
// Concurrent writers may overwrite one another. A positive retain makes
// Badger drop the record after that long.
func (s *Store) PutCacheEntry(ctx context.Context, entry *models.CacheEntry, retain time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return s.update(ctx, "cache_put", func(txn *badger.Txn) error {
		e := badger.NewEntry(cacheKey(entry.Key), data)
		if retain > 0 {
			e = e.WithTTL(retain)
		}
		return txn.SetEntry(e)
	})
}
