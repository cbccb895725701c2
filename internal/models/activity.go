// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import "time"

// ActivityKind names an entry in a room's activity feed.
type ActivityKind string

const (
	ActivityVote     ActivityKind = "vote.recorded"
	ActivityMatch    ActivityKind = "match.found"
	ActivityFallback ActivityKind = "supply.fallback"
)

// Activity is one entry of the per-room feed built from observer events.
type Activity struct {
	ID          string       `json:"id"`
	RoomID      string       `json:"room_id"`
	Kind        ActivityKind `json:"kind"`
	UserID      string       `json:"user_id,omitempty"`
	CandidateID string       `json:"candidate_id,omitempty"`
	VoteType    VoteType     `json:"vote_type,omitempty"`
	Detail      string       `json:"detail,omitempty"`
	At          time.Time    `json:"at"`
}
