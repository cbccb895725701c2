// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package consensus records votes and decides when a room has matched.

A POSITIVE vote is created and counted in a single store transaction, so a
retried request can never count twice: the second attempt fails with
models.ErrDuplicateVote and the tally is untouched. When the post-increment
tally reaches the room's required votes, a separate conditional transaction
finalizes the match. Concurrent finalizers race on that transaction and
exactly one creates the Match; the others observe a MATCHED room and return
without one.

NEGATIVE votes are stored write-once so the sequencer can skip the candidate,
but never counted.

Error mapping for callers:

	models.ErrInvalidArgument   malformed ids or vote type
	models.ErrRoomNotFound      no such room (also an ErrRoomNotJoinable)
	models.ErrRoomNotJoinable   room is MATCHED
	models.ErrNotAMember        caller is not an active member
	models.ErrDuplicateVote     vote already exists for (room, user, candidate)
	models.ErrRetryable         store failure in the vote or finalize path

Reconciler is the crash-recovery counterpart, run periodically by the
supervisor. It raises tallies that fell behind their vote records and
finalizes rooms left at quorum.
*/
package consensus
