// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import "time"

// VoteType is the polarity of a swipe.
type VoteType string

const (
	VotePositive VoteType = "POSITIVE"
	VoteNegative VoteType = "NEGATIVE"
)

// ParseVoteType accepts the canonical names only.
func ParseVoteType(s string) (VoteType, bool) {
	switch VoteType(s) {
	case VotePositive, VoteNegative:
		return VoteType(s), true
	default:
		return "", false
	}
}

// Vote is write-once: at most one per (room, user, candidate).
type Vote struct {
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	CandidateID string    `json:"candidate_id"`
	Type        VoteType  `json:"vote_type"`
	VotedAt     time.Time `json:"voted_at"`
}

// Tally counts positive votes for one candidate in one room. PositiveVotes
// only ever grows.
type Tally struct {
	RoomID        string    `json:"room_id"`
	CandidateID   string    `json:"candidate_id"`
	PositiveVotes int64     `json:"positive_votes"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Match is the single consensus result of a room.
type Match struct {
	RoomID      string    `json:"room_id"`
	CandidateID string    `json:"candidate_id"`
	Votes       int64     `json:"votes"`
	MatchedAt   time.Time `json:"matched_at"`
}
