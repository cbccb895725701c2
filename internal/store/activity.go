// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/models"
)

// AppendActivity stores a under the next value of the activity sequence.
func (s *Store) AppendActivity(ctx context.Context, a *models.Activity) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next activity sequence: %w", err)
	}
	return s.update(ctx, "activity_append", func(txn *badger.Txn) error {
		return setJSON(txn, activityKey(a.RoomID, n), a)
	})
}

// ListActivity returns up to limit activity records of the room, newest first.
func (s *Store) ListActivity(ctx context.Context, roomID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		return nil, nil
	}
	out := make([]models.Activity, 0, limit)
	err := s.view(ctx, func(txn *badger.Txn) error {
		prefix := activityPrefix(roomID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the largest key <= the seek key.
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			var a models.Activity
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &a) }); err != nil {
				return fmt.Errorf("decode activity: %w", err)
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}
