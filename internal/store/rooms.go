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

func getRoom(txn *badger.Txn, roomID string) (*models.Room, error) {
	var room models.Room
	err := getJSON(txn, roomKey(roomID), &room)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}
	return &room, nil
}

// GetRoom returns the room with its shown candidates filled in from the
// shown:<room>: records.
func (s *Store) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	var room *models.Room
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		room, err = getRoom(txn, roomID)
		if err != nil {
			return err
		}
		room.ShownCandidateIDs = room.ShownCandidateIDs[:0]
		prefix := shownPrefix(roomID)
		return scanPrefix(txn, prefix, false, func(item *badger.Item) error {
			room.ShownCandidateIDs = append(room.ShownCandidateIDs, suffixAfter(item.Key(), prefix))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// ListRoomIDs returns every room id in key order.
func (s *Store) ListRoomIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		prefix := []byte(prefixRoom)
		return scanPrefix(txn, prefix, false, func(item *badger.Item) error {
			ids = append(ids, suffixAfter(item.Key(), prefix))
			return nil
		})
	})
	return ids, err
}

// PutRoomIfAbsent creates room unless a room with the same id exists. It
// reports whether the room was created.
func (s *Store) PutRoomIfAbsent(ctx context.Context, room *models.Room) (bool, error) {
	if !room.Status.Valid() {
		room.Status = models.RoomWaiting
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	stored := *room
	stored.ShownCandidateIDs = nil

	var created bool
	err := s.update(ctx, "room_create", func(txn *badger.Txn) error {
		created = false
		ok, err := exists(txn, roomKey(room.ID))
		if err != nil || ok {
			return err
		}
		if err := setJSON(txn, roomKey(room.ID), &stored); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// AddMemberIfAbsent records an active membership. It reports whether the
// membership was created.
func (s *Store) AddMemberIfAbsent(ctx context.Context, roomID, userID string) (bool, error) {
	member := models.Member{RoomID: roomID, UserID: userID, Active: true, JoinedAt: time.Now().UTC()}

	var created bool
	err := s.update(ctx, "member_create", func(txn *badger.Txn) error {
		created = false
		if _, err := getRoom(txn, roomID); err != nil {
			return err
		}
		ok, err := exists(txn, memberKey(roomID, userID))
		if err != nil || ok {
			return err
		}
		if err := setJSON(txn, memberKey(roomID, userID), &member); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// IsActiveMember reports whether userID holds an active membership of roomID.
func (s *Store) IsActiveMember(ctx context.Context, roomID, userID string) (bool, error) {
	var active bool
	err := s.view(ctx, func(txn *badger.Txn) error {
		var m models.Member
		err := getJSON(txn, memberKey(roomID, userID), &m)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get member: %w", err)
		}
		active = m.Active
		return nil
	})
	return active, err
}

// ListMembers returns the active members of a room.
func (s *Store) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	var members []models.Member
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, memberPrefix(roomID), true, func(item *badger.Item) error {
			var m models.Member
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &m) }); err != nil {
				return err
			}
			if m.Active {
				members = append(members, m)
			}
			return nil
		})
	})
	return members, err
}

// MarkShown records that candidateID was presented in roomID. Idempotent.
func (s *Store) MarkShown(ctx context.Context, roomID, candidateID string) error {
	return s.update(ctx, "mark_shown", func(txn *badger.Txn) error {
		ok, err := exists(txn, shownKey(roomID, candidateID))
		if err != nil || ok {
			return err
		}
		return setJSON(txn, shownKey(roomID, candidateID), time.Now().UTC())
	})
}

// AssignCandidates sets the room's candidate list if it has none. The first
// writer wins: when a list already exists the stored room is returned
// unchanged and ids is ignored.
func (s *Store) AssignCandidates(ctx context.Context, roomID string, ids []string) (*models.Room, error) {
	var room *models.Room
	err := s.update(ctx, "assign_candidates", func(txn *badger.Txn) error {
		var err error
		room, err = getRoom(txn, roomID)
		if err != nil {
			return err
		}
		if len(room.CandidateList) > 0 {
			return nil
		}
		room.CandidateList = append([]string(nil), ids...)
		room.UpdatedAt = time.Now().UTC()
		return setJSON(txn, roomKey(roomID), room)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}
