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

// PositiveVoteResult is what one committed POSITIVE vote transaction saw.
type PositiveVoteResult struct {
	Vote          models.Vote
	Tally         models.Tally
	RequiredVotes int
	// Activated is set when this vote moved the room from WAITING to ACTIVE.
	Activated bool
}

// QuorumReached reports whether the post-increment tally meets the room's
// required votes.
func (r PositiveVoteResult) QuorumReached() bool {
	return r.Tally.PositiveVotes >= int64(r.RequiredVotes)
}

// createVote writes the vote record unless one already exists for the
// (room, user, candidate) triple, whatever its type.
func createVote(txn *badger.Txn, vote *models.Vote) error {
	key := voteKey(vote.RoomID, vote.UserID, vote.CandidateID)
	ok, err := exists(txn, key)
	if err != nil {
		return fmt.Errorf("check vote: %w", err)
	}
	if ok {
		return models.ErrDuplicateVote
	}
	return setJSON(txn, key, vote)
}

func joinableRoom(txn *badger.Txn, roomID string) (*models.Room, error) {
	room, err := getRoom(txn, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Status.Joinable() {
		return nil, fmt.Errorf("room %s is %s: %w", roomID, room.Status, models.ErrRoomNotJoinable)
	}
	return room, nil
}

func getTally(txn *badger.Txn, roomID, candidateID string) (models.Tally, error) {
	tally := models.Tally{RoomID: roomID, CandidateID: candidateID}
	err := getJSON(txn, tallyKey(roomID, candidateID), &tally)
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return tally, fmt.Errorf("get tally: %w", err)
	}
	return tally, nil
}

// RecordPositiveVote creates the vote, increments the candidate's tally and
// activates a WAITING room, all in one transaction. A second vote for the
// same triple fails with models.ErrDuplicateVote and changes nothing.
func (s *Store) RecordPositiveVote(ctx context.Context, roomID, userID, candidateID string) (PositiveVoteResult, error) {
	var res PositiveVoteResult
	err := s.update(ctx, "vote_positive", func(txn *badger.Txn) error {
		res = PositiveVoteResult{}
		now := time.Now().UTC()

		room, err := joinableRoom(txn, roomID)
		if err != nil {
			return err
		}

		vote := models.Vote{
			RoomID:      roomID,
			UserID:      userID,
			CandidateID: candidateID,
			Type:        models.VotePositive,
			VotedAt:     now,
		}
		if err := createVote(txn, &vote); err != nil {
			return err
		}

		tally, err := getTally(txn, roomID, candidateID)
		if err != nil {
			return err
		}
		tally.PositiveVotes++
		tally.UpdatedAt = now
		if err := setJSON(txn, tallyKey(roomID, candidateID), &tally); err != nil {
			return err
		}

		if room.Status == models.RoomWaiting {
			room.Status = models.RoomActive
			room.UpdatedAt = now
			if err := setJSON(txn, roomKey(roomID), room); err != nil {
				return err
			}
			res.Activated = true
		}

		res.Vote = vote
		res.Tally = tally
		res.RequiredVotes = room.RequiredVotes
		return nil
	})
	return res, err
}

// RecordNegativeVote persists a NEGATIVE vote. It is write-once like a
// POSITIVE vote but never touches the tally.
func (s *Store) RecordNegativeVote(ctx context.Context, roomID, userID, candidateID string) (models.Vote, error) {
	var vote models.Vote
	err := s.update(ctx, "vote_negative", func(txn *badger.Txn) error {
		if _, err := joinableRoom(txn, roomID); err != nil {
			return err
		}
		vote = models.Vote{
			RoomID:      roomID,
			UserID:      userID,
			CandidateID: candidateID,
			Type:        models.VoteNegative,
			VotedAt:     time.Now().UTC(),
		}
		return createVote(txn, &vote)
	})
	return vote, err
}

// GetVote returns the vote of userID on candidateID, or badger.ErrKeyNotFound.
func (s *Store) GetVote(ctx context.Context, roomID, userID, candidateID string) (*models.Vote, error) {
	var vote models.Vote
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, voteKey(roomID, userID, candidateID), &vote)
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// VotedCandidates returns the ids of every candidate userID voted on in
// roomID, of either type. Only keys are read.
func (s *Store) VotedCandidates(ctx context.Context, roomID, userID string) (map[string]struct{}, error) {
	voted := make(map[string]struct{})
	err := s.view(ctx, func(txn *badger.Txn) error {
		prefix := userVotePrefix(roomID, userID)
		return scanPrefix(txn, prefix, false, func(item *badger.Item) error {
			voted[suffixAfter(item.Key(), prefix)] = struct{}{}
			return nil
		})
	})
	return voted, err
}

// FinalizeMatch moves the room to MATCHED with candidateID as the result and
// creates the Match record, provided the room is not already MATCHED and the
// candidate's tally meets quorum. created is false when another writer
// finalized first; the existing Match is returned in that case.
func (s *Store) FinalizeMatch(ctx context.Context, roomID, candidateID string) (match models.Match, created bool, err error) {
	err = s.update(ctx, "finalize", func(txn *badger.Txn) error {
		created = false
		match = models.Match{}

		room, err := getRoom(txn, roomID)
		if err != nil {
			return err
		}
		if room.IsMatched() {
			if err := getJSON(txn, matchKey(roomID), &match); err != nil {
				return fmt.Errorf("room %s is MATCHED but match record is unreadable: %w", roomID, err)
			}
			return nil
		}

		tally, err := getTally(txn, roomID, candidateID)
		if err != nil {
			return err
		}
		if tally.PositiveVotes < int64(room.RequiredVotes) {
			return fmt.Errorf("candidate %s has %d of %d votes: %w",
				candidateID, tally.PositiveVotes, room.RequiredVotes, ErrQuorumNotReached)
		}

		now := time.Now().UTC()
		room.Status = models.RoomMatched
		room.ResultCandidateID = candidateID
		room.UpdatedAt = now
		if err := setJSON(txn, roomKey(roomID), room); err != nil {
			return err
		}

		match = models.Match{
			RoomID:      roomID,
			CandidateID: candidateID,
			Votes:       tally.PositiveVotes,
			MatchedAt:   now,
		}
		if err := setJSON(txn, matchKey(roomID), &match); err != nil {
			return err
		}
		created = true
		return nil
	})
	return match, created, err
}

// GetMatch returns the room's match or ErrMatchNotFound.
func (s *Store) GetMatch(ctx context.Context, roomID string) (*models.Match, error) {
	var match models.Match
	err := s.view(ctx, func(txn *badger.Txn) error {
		err := getJSON(txn, matchKey(roomID), &match)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrMatchNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetTally returns the candidate's tally; an absent tally reads as zero.
func (s *Store) GetTally(ctx context.Context, roomID, candidateID string) (models.Tally, error) {
	var tally models.Tally
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		tally, err = getTally(txn, roomID, candidateID)
		return err
	})
	return tally, err
}

// ListTallies returns every tally of the room in candidate id order.
func (s *Store) ListTallies(ctx context.Context, roomID string) ([]models.Tally, error) {
	var tallies []models.Tally
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, tallyPrefix(roomID), true, func(item *badger.Item) error {
			var t models.Tally
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &t) }); err != nil {
				return err
			}
			tallies = append(tallies, t)
			return nil
		})
	})
	return tallies, err
}

// countPositive counts recorded POSITIVE votes per candidate.
func countPositive(txn *badger.Txn, roomID string) (map[string]int64, error) {
	counts := make(map[string]int64)
	err := scanPrefix(txn, roomVotePrefix(roomID), true, func(item *badger.Item) error {
		var v models.Vote
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
			return fmt.Errorf("decode vote %s: %w", item.Key(), err)
		}
		if v.Type == models.VotePositive {
			counts[v.CandidateID]++
		}
		return nil
	})
	return counts, err
}

// CountPositiveVotes counts POSITIVE vote records per candidate.
func (s *Store) CountPositiveVotes(ctx context.Context, roomID string) (map[string]int64, error) {
	var counts map[string]int64
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		counts, err = countPositive(txn, roomID)
		return err
	})
	return counts, err
}

// RepairTallies raises every tally of the room that is lower than its count
// of POSITIVE vote records. Tallies are never lowered. The repaired tallies
// are returned.
func (s *Store) RepairTallies(ctx context.Context, roomID string) ([]models.Tally, error) {
	var repaired []models.Tally
	err := s.update(ctx, "repair_tally", func(txn *badger.Txn) error {
		repaired = repaired[:0]
		counts, err := countPositive(txn, roomID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		for candidateID, n := range counts {
			tally, err := getTally(txn, roomID, candidateID)
			if err != nil {
				return err
			}
			if tally.PositiveVotes >= n {
				continue
			}
			tally.PositiveVotes = n
			tally.UpdatedAt = now
			if err := setJSON(txn, tallyKey(roomID, candidateID), &tally); err != nil {
				return err
			}
			repaired = append(repaired, tally)
		}
		return nil
	})
	return repaired, err
}
