// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
)

// Errors
var (
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("store is closed")

	// ErrMatchNotFound means the room has no match yet.
	ErrMatchNotFound = errors.New("match not found")

	// ErrCacheMiss means no cache entry exists under the key, fresh or stale.
	ErrCacheMiss = errors.New("cache entry not found")

	// ErrQuorumNotReached is returned by FinalizeMatch when the candidate's
	// tally is below the room's required votes.
	ErrQuorumNotReached = errors.New("quorum not reached")
)

// RoomDirectory answers the membership questions the vote engine asks before
// accepting a vote.
type RoomDirectory interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	IsActiveMember(ctx context.Context, roomID, userID string) (bool, error)
}

var _ RoomDirectory = (*Store)(nil)

// Store persists rooms, votes, tallies, matches, cache entries and activity
// in BadgerDB. All cross-record invariants are enforced inside serializable
// Badger transactions; conflicting transactions are retried up to txnRetries
// times.
type Store struct {
	db         *badger.DB
	txnRetries int
	seq        *badger.Sequence

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the database described by cfg.
func Open(cfg config.StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s, err := newStore(db, cfg.TxnRetries)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Store opened")
	return s, nil
}

// OpenInMemory opens a throwaway in-memory store. Tests across packages use it.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory BadgerDB: %w", err)
	}
	s, err := newStore(db, 10)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *badger.DB, txnRetries int) (*Store, error) {
	if txnRetries < 1 {
		txnRetries = 1
	}
	seq, err := db.GetSequence([]byte(activitySeqKey), 100)
	if err != nil {
		return nil, fmt.Errorf("lease activity sequence: %w", err)
	}
	return &Store{db: db, txnRetries: txnRetries, seq: seq}, nil
}

// DB exposes the underlying handle for maintenance tasks.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Close releases the activity sequence and closes the database. Safe to call
// more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release activity sequence")
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Store closed")
	return nil
}

// Ping reports whether the database accepts reads.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey("__ping__"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (s *Store) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on ErrConflict. fn must
// be safe to re-run: it may not keep state from a previous attempt.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= s.txnRetries; attempt++ {
		if err = s.checkOpen(ctx); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		metrics.TxnConflicts.WithLabelValues(op).Inc()
		logging.Ctx(ctx).Debug().
			Str("op", op).
			Int("attempt", attempt).
			Msg("Transaction conflict, retrying")
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", op, s.txnRetries, err)
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.db.View(fn)
}

// getJSON decodes the value at key into v. It returns badger.ErrKeyNotFound
// unchanged so callers can map it to their own sentinel.
func getJSON(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scanPrefix calls fn for every key under prefix in ascending order. Values
// are only fetched when withValues is set.
func scanPrefix(txn *badger.Txn, prefix []byte, withValues bool, fn func(item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := fn(it.Item()); err != nil {
			return err
		}
	}
	return nil
}
