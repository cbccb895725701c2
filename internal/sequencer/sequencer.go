// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package sequencer

import (
	"context"
	"fmt"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/supply"
	"github.com/tomtom215/trinity/internal/validation"
)

// RoomStore is the subset of the store the sequencer reads and writes.
type RoomStore interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	VotedCandidates(ctx context.Context, roomID, userID string) (map[string]struct{}, error)
	AssignCandidates(ctx context.Context, roomID string, ids []string) (*models.Room, error)
}

// CandidateSource resolves candidate pools and metadata.
type CandidateSource interface {
	GetCandidates(ctx context.Context, key string, filters models.Filters) ([]models.Candidate, supply.Source, error)
	FindCandidate(ctx context.Context, roomID string, filters models.Filters, candidateID string) (models.Candidate, bool)
}

// Next is the answer to "what should this user see now".
type Next struct {
	Candidate *models.Candidate `json:"candidate,omitempty"`
	IsMatched bool              `json:"is_matched"`
	Exhausted bool              `json:"exhausted"`
}

// Sequencer picks the next candidate for a user. It keeps no state of its
// own: the answer is a function of the room's candidate list and the user's
// vote history.
type Sequencer struct {
	rooms  RoomStore
	supply CandidateSource
}

// New creates a Sequencer.
func New(rooms RoomStore, source CandidateSource) *Sequencer {
	return &Sequencer{rooms: rooms, supply: source}
}

// NextCandidate returns the first candidate in the room's list that userID
// has not voted on. A MATCHED room answers with the match; a user who has
// voted on every candidate is Exhausted.
func (s *Sequencer) NextCandidate(ctx context.Context, roomID, userID string) (Next, error) {
	if verr := validation.ValidateID("room_id", roomID); verr != nil {
		return Next{}, fmt.Errorf("%w: %s", models.ErrInvalidArgument, verr.Error())
	}
	if verr := validation.ValidateID("user_id", userID); verr != nil {
		return Next{}, fmt.Errorf("%w: %s", models.ErrInvalidArgument, verr.Error())
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Next{}, err
	}

	if room.IsMatched() {
		c := s.lookup(ctx, room, room.ResultCandidateID)
		metrics.SequencerResults.WithLabelValues("matched").Inc()
		return Next{Candidate: &c, IsMatched: true}, nil
	}

	if len(room.CandidateList) == 0 {
		room, err = s.populate(ctx, room)
		if err != nil {
			return Next{}, err
		}
	}

	voted, err := s.rooms.VotedCandidates(ctx, roomID, userID)
	if err != nil {
		return Next{}, fmt.Errorf("load vote history: %w", err)
	}

	for _, id := range room.CandidateList {
		if _, done := voted[id]; done {
			continue
		}
		c := s.lookup(ctx, room, id)
		metrics.SequencerResults.WithLabelValues("candidate").Inc()
		return Next{Candidate: &c}, nil
	}

	metrics.SequencerResults.WithLabelValues("exhausted").Inc()
	logging.Ctx(ctx).Debug().
		Str("room_id", roomID).
		Int("candidates", len(room.CandidateList)).
		Msg("User exhausted candidate list")
	return Next{Exhausted: true}, nil
}

// populate assigns the room's candidate list from supply. Concurrent callers
// may both fetch; the store keeps whichever list was written first.
func (s *Sequencer) populate(ctx context.Context, room *models.Room) (*models.Room, error) {
	items, src, err := s.supply.GetCandidates(ctx, supply.RoomKey(room.ID), room.Filters)
	if err != nil {
		return nil, fmt.Errorf("supply candidates: %w", err)
	}
	ids := make([]string, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.ID)
	}

	assigned, err := s.rooms.AssignCandidates(ctx, room.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("assign candidates: %w", err)
	}
	logging.Ctx(ctx).Info().
		Str("room_id", room.ID).
		Str("source", string(src)).
		Int("candidates", len(assigned.CandidateList)).
		Msg("Candidate list assigned")
	return assigned, nil
}

// lookup returns full metadata when any cache tier knows the id and a bare
// candidate carrying only the id otherwise.
func (s *Sequencer) lookup(ctx context.Context, room *models.Room, id string) models.Candidate {
	if c, ok := s.supply.FindCandidate(ctx, room.ID, room.Filters, id); ok {
		return c
	}
	return models.Candidate{ID: id, MediaType: room.Filters.Normalize().MediaType}
}
