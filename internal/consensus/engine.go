// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package consensus

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/store"
	"github.com/tomtom215/trinity/internal/validation"
)

// VoteStore is the persistence the engine needs. *store.Store implements it.
type VoteStore interface {
	store.RoomDirectory
	MarkShown(ctx context.Context, roomID, candidateID string) error
	RecordPositiveVote(ctx context.Context, roomID, userID, candidateID string) (store.PositiveVoteResult, error)
	RecordNegativeVote(ctx context.Context, roomID, userID, candidateID string) (models.Vote, error)
	FinalizeMatch(ctx context.Context, roomID, candidateID string) (models.Match, bool, error)
}

// Observer is notified after a vote or match has been committed. Calls must
// not block; failures are the observer's concern.
type Observer interface {
	VoteRecorded(ctx context.Context, vote models.Vote)
	MatchFound(ctx context.Context, match models.Match)
}

// VoteResult is the outcome of SubmitVote. Match is set only when this call
// created the room's match.
type VoteResult struct {
	Vote  models.Vote   `json:"vote"`
	Match *models.Match `json:"match,omitempty"`
}

// Engine records votes and finalizes matches. It is stateless; all
// coordination happens in store transactions.
type Engine struct {
	store    VoteStore
	observer Observer
}

// NewEngine creates an Engine. observer may be nil.
func NewEngine(s VoteStore, observer Observer) *Engine {
	return &Engine{store: s, observer: observer}
}

// SubmitVote records userID's vote on candidateID in roomID.
//
// A POSITIVE vote that brings the candidate's tally to the room's required
// votes finalizes the match; the returned result carries the Match when this
// call won the finalize. Errors: models.ErrInvalidArgument,
// models.ErrRoomNotFound, models.ErrRoomNotJoinable, models.ErrNotAMember,
// models.ErrDuplicateVote and models.ErrRetryable.
func (e *Engine) SubmitVote(ctx context.Context, roomID, userID, candidateID string, voteType models.VoteType) (VoteResult, error) {
	if err := validateVote(roomID, userID, candidateID, voteType); err != nil {
		metrics.RecordVote(string(voteType), "invalid")
		return VoteResult{}, err
	}

	if err := e.checkAccess(ctx, roomID, userID); err != nil {
		metrics.RecordVote(string(voteType), "rejected")
		return VoteResult{}, err
	}

	log := logging.Ctx(ctx).With().
		Str("room_id", roomID).
		Str("candidate_id", candidateID).
		Str("vote_type", string(voteType)).
		Logger()

	if err := e.store.MarkShown(ctx, roomID, candidateID); err != nil {
		metrics.ShownMarkFailures.Inc()
		log.Warn().Err(err).Msg("Failed to mark candidate shown")
	}

	if voteType == models.VoteNegative {
		vote, err := e.store.RecordNegativeVote(ctx, roomID, userID, candidateID)
		if err != nil {
			return VoteResult{}, e.voteFailed(voteType, err)
		}
		metrics.RecordVote(string(voteType), "accepted")
		log.Debug().Msg("Negative vote recorded")
		e.notifyVote(ctx, vote)
		return VoteResult{Vote: vote}, nil
	}

	res, err := e.store.RecordPositiveVote(ctx, roomID, userID, candidateID)
	if err != nil {
		return VoteResult{}, e.voteFailed(voteType, err)
	}
	metrics.RecordVote(string(voteType), "accepted")
	log.Debug().
		Int64("tally", res.Tally.PositiveVotes).
		Int("required_votes", res.RequiredVotes).
		Bool("activated", res.Activated).
		Msg("Positive vote recorded")
	e.notifyVote(ctx, res.Vote)

	result := VoteResult{Vote: res.Vote}
	if !res.QuorumReached() {
		return result, nil
	}

	match, created, err := e.store.FinalizeMatch(ctx, roomID, candidateID)
	if err != nil {
		log.Error().Err(err).Msg("Finalize failed after quorum")
		return result, fmt.Errorf("finalize match: %v: %w", err, models.ErrRetryable)
	}
	if !created {
		metrics.FinalizeNoops.Inc()
		log.Debug().Str("winner", match.CandidateID).Msg("Room already matched")
		return result, nil
	}

	metrics.MatchesTotal.Inc()
	log.Info().Int64("votes", match.Votes).Msg("Match found")
	if e.observer != nil {
		e.observer.MatchFound(ctx, match)
	}
	result.Match = &match
	return result, nil
}

func validateVote(roomID, userID, candidateID string, voteType models.VoteType) error {
	for _, f := range []struct{ name, value string }{
		{"room_id", roomID},
		{"user_id", userID},
		{"candidate_id", candidateID},
	} {
		if verr := validation.ValidateID(f.name, f.value); verr != nil {
			return fmt.Errorf("%w: %s", models.ErrInvalidArgument, verr.Error())
		}
	}
	if voteType != models.VotePositive && voteType != models.VoteNegative {
		return fmt.Errorf("%w: unknown vote type %q", models.ErrInvalidArgument, voteType)
	}
	return nil
}

// checkAccess enforces the room and membership preconditions before any write.
func (e *Engine) checkAccess(ctx context.Context, roomID, userID string) error {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.Status.Joinable() {
		return fmt.Errorf("room %s is %s: %w", roomID, room.Status, models.ErrRoomNotJoinable)
	}
	ok, err := e.store.IsActiveMember(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return models.ErrNotAMember
	}
	return nil
}

// voteFailed classifies a store error from the vote transaction. Domain
// rejections pass through; anything else is retryable.
func (e *Engine) voteFailed(voteType models.VoteType, err error) error {
	switch {
	case errors.Is(err, models.ErrDuplicateVote):
		metrics.RecordVote(string(voteType), "duplicate")
		return err
	case errors.Is(err, models.ErrRoomNotJoinable):
		// The room matched between the access check and the transaction.
		metrics.RecordVote(string(voteType), "rejected")
		return err
	default:
		metrics.RecordVote(string(voteType), "error")
		return fmt.Errorf("record vote: %v: %w", err, models.ErrRetryable)
	}
}

func (e *Engine) notifyVote(ctx context.Context, vote models.Vote) {
	if e.observer != nil {
		e.observer.VoteRecorded(ctx, vote)
	}
}
