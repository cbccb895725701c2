// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import "time"

// RoomStatus is the lifecycle phase of a room. MATCHED is terminal.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "WAITING"
	RoomActive  RoomStatus = "ACTIVE"
	RoomMatched RoomStatus = "MATCHED"
)

// Joinable reports whether votes may still be submitted.
func (s RoomStatus) Joinable() bool {
	return s == RoomWaiting || s == RoomActive
}

// Valid reports whether s is one of the known statuses.
func (s RoomStatus) Valid() bool {
	return s == RoomWaiting || s == RoomActive || s == RoomMatched
}

// Room is the voting context shared by a small group.
//
// ResultCandidateID is non-empty iff Status is RoomMatched. CandidateList is
// set once and never reordered. ShownCandidateIDs is not stored on the room
// record itself; the store fills it from the per-candidate shown keys.
type Room struct {
	ID                string     `json:"id" validate:"required,max=64,excludesall=:#"`
	Status            RoomStatus `json:"status"`
	RequiredVotes     int        `json:"required_votes" validate:"gte=1"`
	CandidateList     []string   `json:"candidate_list,omitempty"`
	ShownCandidateIDs []string   `json:"shown_candidate_ids,omitempty"`
	ResultCandidateID string     `json:"result_candidate_id,omitempty"`
	Filters           Filters    `json:"filters"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsMatched reports whether consensus has been reached.
func (r *Room) IsMatched() bool {
	return r.Status == RoomMatched
}

// Member records that a user belongs to a room.
type Member struct {
	RoomID   string    `json:"room_id"`
	UserID   string    `json:"user_id" validate:"required,max=128,excludesall=:#"`
	Active   bool      `json:"active"`
	JoinedAt time.Time `json:"joined_at"`
}
