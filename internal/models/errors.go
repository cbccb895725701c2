// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import (
	"errors"
	"fmt"
)

// Precondition and conflict errors. Callers match them with errors.Is.
var (
	// ErrRoomNotJoinable: the room does not accept votes (missing or MATCHED).
	ErrRoomNotJoinable = errors.New("room not joinable")

	// ErrRoomNotFound is a RoomNotJoinable for a room that does not exist.
	ErrRoomNotFound = fmt.Errorf("room not found: %w", ErrRoomNotJoinable)

	// ErrNotAMember: the caller is not an active member of the room.
	ErrNotAMember = errors.New("not a member of room")

	// ErrDuplicateVote: a vote already exists for (room, user, candidate).
	// Benign; nothing was changed.
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrRetryable wraps failures of the authoritative write path (tally
	// increment, match finalization). The caller may retry the request.
	ErrRetryable = errors.New("temporary failure, retry")

	// ErrInvalidArgument: malformed identifiers or vote type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable is produced by the catalog path and absorbed by
	// the circuit breaker fallback; it never reaches API callers.
	ErrUpstreamUnavailable = errors.New("upstream catalog unavailable")
)
