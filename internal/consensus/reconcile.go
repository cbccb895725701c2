// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package consensus

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/store"
)

// RepairStore is what the reconciliation pass reads and repairs.
type RepairStore interface {
	ListRoomIDs(ctx context.Context) ([]string, error)
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	RepairTallies(ctx context.Context, roomID string) ([]models.Tally, error)
	ListTallies(ctx context.Context, roomID string) ([]models.Tally, error)
	FinalizeMatch(ctx context.Context, roomID, candidateID string) (models.Match, bool, error)
}

// ReconcileReport summarizes one pass.
type ReconcileReport struct {
	Rooms            int
	TalliesRepaired  int
	MatchesFinalized int
	Errors           int
}

// Reconciler repairs state left behind by a crash between committing a vote
// and finalizing its match. Tallies are raised to the number of recorded
// POSITIVE votes, never lowered, and rooms whose tally already meets quorum
// are finalized.
type Reconciler struct {
	store    RepairStore
	observer Observer
	logger   zerolog.Logger
}

// NewReconciler creates a Reconciler. observer may be nil.
func NewReconciler(s RepairStore, observer Observer) *Reconciler {
	return &Reconciler{
		store:    s,
		observer: observer,
		logger:   logging.WithComponent("reconciler"),
	}
}

// Reconcile runs one pass over every room. A failing room is logged and
// counted; the pass continues with the next one.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	ids, err := r.store.ListRoomIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list rooms: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Rooms++
		repaired, finalized, err := r.reconcileRoom(ctx, id)
		report.TalliesRepaired += repaired
		if finalized {
			report.MatchesFinalized++
		}
		if err != nil {
			report.Errors++
			r.logger.Warn().Err(err).Str("room_id", id).Msg("Room reconciliation failed")
		}
	}

	if report.TalliesRepaired > 0 || report.MatchesFinalized > 0 {
		r.logger.Info().
			Int("rooms", report.Rooms).
			Int("tallies_repaired", report.TalliesRepaired).
			Int("matches_finalized", report.MatchesFinalized).
			Msg("Reconciliation applied repairs")
	}
	return report, nil
}

func (r *Reconciler) reconcileRoom(ctx context.Context, roomID string) (repaired int, finalized bool, err error) {
	room, err := r.store.GetRoom(ctx, roomID)
	if err != nil {
		return 0, false, err
	}
	if room.IsMatched() {
		return 0, false, nil
	}

	fixed, err := r.store.RepairTallies(ctx, roomID)
	if err != nil {
		return 0, false, fmt.Errorf("repair tallies: %w", err)
	}
	for _, t := range fixed {
		metrics.ReconcileRepairs.WithLabelValues("tally").Inc()
		r.logger.Warn().
			Str("room_id", roomID).
			Str("candidate_id", t.CandidateID).
			Int64("positive_votes", t.PositiveVotes).
			Msg("Tally raised to recorded vote count")
	}

	winner, ok, err := r.quorumCandidate(ctx, room)
	if err != nil || !ok {
		return len(fixed), false, err
	}

	match, created, err := r.store.FinalizeMatch(ctx, roomID, winner)
	if err != nil {
		if errors.Is(err, store.ErrQuorumNotReached) {
			return len(fixed), false, nil
		}
		return len(fixed), false, fmt.Errorf("finalize: %w", err)
	}
	if !created {
		return len(fixed), false, nil
	}

	metrics.ReconcileRepairs.WithLabelValues("finalize").Inc()
	metrics.MatchesTotal.Inc()
	r.logger.Warn().
		Str("room_id", roomID).
		Str("candidate_id", match.CandidateID).
		Int64("votes", match.Votes).
		Msg("Finalized match left pending at quorum")
	if r.observer != nil {
		r.observer.MatchFound(ctx, match)
	}
	return len(fixed), true, nil
}

// quorumCandidate picks the candidate with the most votes among those at
// quorum. Ties go to the lowest candidate id.
func (r *Reconciler) quorumCandidate(ctx context.Context, room *models.Room) (string, bool, error) {
	tallies, err := r.store.ListTallies(ctx, room.ID)
	if err != nil {
		return "", false, fmt.Errorf("list tallies: %w", err)
	}
	var best *models.Tally
	for i := range tallies {
		t := &tallies[i]
		if t.PositiveVotes < int64(room.RequiredVotes) {
			continue
		}
		if best == nil || t.PositiveVotes > best.PositiveVotes {
			best = t
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.CandidateID, true, nil
}
