// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trinity/internal/auth"
	"github.com/tomtom215/trinity/internal/breaker"
	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/sequencer"
	"github.com/tomtom215/trinity/internal/supply"
	"github.com/tomtom215/trinity/internal/validation"
)

// VoteSubmitter is implemented by *consensus.Engine.
type VoteSubmitter interface {
	SubmitVote(ctx context.Context, roomID, userID, candidateID string, voteType models.VoteType) (consensus.VoteResult, error)
}

// NextProvider is implemented by *sequencer.Sequencer.
type NextProvider interface {
	NextCandidate(ctx context.Context, roomID, userID string) (sequencer.Next, error)
}

// CandidateSupplier is implemented by *supply.Service.
type CandidateSupplier interface {
	GetCandidates(ctx context.Context, key string, filters models.Filters) ([]models.Candidate, supply.Source, error)
	BreakerState() breaker.State
}

// RoomStore is the read side of the store used by the handlers.
type RoomStore interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	IsActiveMember(ctx context.Context, roomID, userID string) (bool, error)
	ListActivity(ctx context.Context, roomID string, limit int) ([]models.Activity, error)
	Ping(ctx context.Context) error
}

// Handler serves the room API.
type Handler struct {
	votes         VoteSubmitter
	next          NextProvider
	supply        CandidateSupplier
	rooms         RoomStore
	activityLimit int
	startTime     time.Time
}

// NewHandler wires the handler. activityLimit caps the activity feed page.
func NewHandler(votes VoteSubmitter, next NextProvider, sup CandidateSupplier, rooms RoomStore, activityLimit int) *Handler {
	if activityLimit <= 0 {
		activityLimit = 50
	}
	return &Handler{
		votes:         votes,
		next:          next,
		supply:        sup,
		rooms:         rooms,
		activityLimit: activityLimit,
		startTime:     time.Now(),
	}
}

// VoteResponse is the data of a successful vote.
type VoteResponse struct {
	Vote    models.Vote   `json:"vote"`
	Matched bool          `json:"matched"`
	Match   *models.Match `json:"match,omitempty"`
}

// SubmitVote handles POST /api/v1/rooms/{roomID}/votes.
func (h *Handler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	roomID := chi.URLParam(r, "roomID")

	var req VoteRequest
	verr, err := decodeJSON(r, &req)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr != nil {
		rw.ValidationError("invalid vote", verr.Details())
		return
	}
	voteType, ok := models.ParseVoteType(req.VoteType)
	if !ok {
		rw.ValidationError("invalid vote", map[string]string{"vote_type": "must be POSITIVE or NEGATIVE"})
		return
	}

	res, err := h.votes.SubmitVote(r.Context(), roomID, auth.UserID(r), req.CandidateID, voteType)
	if err != nil {
		writeDomainError(rw, err)
		return
	}

	rw.Status(http.StatusCreated, VoteResponse{Vote: res.Vote, Matched: res.Match != nil, Match: res.Match})
}

// NextCandidate handles GET /api/v1/rooms/{roomID}/next.
func (h *Handler) NextCandidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	roomID := chi.URLParam(r, "roomID")
	if _, ok := h.requireMember(rw, r, roomID); !ok {
		return
	}

	next, err := h.next.NextCandidate(r.Context(), roomID, auth.UserID(r))
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.Success(next)
}

// CandidatesResponse is the data of GET /candidates.
type CandidatesResponse struct {
	Source string             `json:"source"`
	Items  []models.Candidate `json:"items"`
}

// Candidates handles GET /api/v1/rooms/{roomID}/candidates.
func (h *Handler) Candidates(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	roomID := chi.URLParam(r, "roomID")
	room, ok := h.requireMember(rw, r, roomID)
	if !ok {
		return
	}

	items, src, err := h.supply.GetCandidates(r.Context(), supply.RoomKey(roomID), room.Filters)
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.List(CandidatesResponse{Source: string(src), Items: items}, len(items))
}

// Activity handles GET /api/v1/rooms/{roomID}/activity?limit=N.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	roomID := chi.URLParam(r, "roomID")

	limit := h.activityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > h.activityLimit {
			rw.ValidationError("limit must be between 1 and "+strconv.Itoa(h.activityLimit), nil)
			return
		}
		limit = n
	}
	if _, ok := h.requireMember(rw, r, roomID); !ok {
		return
	}

	items, err := h.rooms.ListActivity(r.Context(), roomID, limit)
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	rw.List(items, len(items))
}

// requireMember loads the room and checks the caller is an active member.
// On failure the error response is written and ok is false.
func (h *Handler) requireMember(rw *ResponseWriter, r *http.Request, roomID string) (room *models.Room, ok bool) {
	if verr := validation.ValidateID("room_id", roomID); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return nil, false
	}
	room, err := h.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		writeDomainError(rw, err)
		return nil, false
	}
	member, err := h.rooms.IsActiveMember(r.Context(), roomID, auth.UserID(r))
	if err != nil {
		writeDomainError(rw, err)
		return nil, false
	}
	if !member {
		writeDomainError(rw, models.ErrNotAMember)
		return nil, false
	}
	return room, true
}
