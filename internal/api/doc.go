// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package api exposes the room operations over HTTP using chi.

Routes:

	POST /api/v1/rooms/{roomID}/votes       submit a vote
	GET  /api/v1/rooms/{roomID}/next        next candidate for the caller
	GET  /api/v1/rooms/{roomID}/candidates  the room's candidate pool
	GET  /api/v1/rooms/{roomID}/activity    recent room activity, newest first
	GET  /healthz                           store liveness and catalog breaker state
	GET  /metrics                           Prometheus

Room routes require an authenticated caller (see package auth), are rate
limited per client IP and answer with the APIResponse envelope. Domain errors
map to status codes as follows:

	ErrInvalidArgument   400 VALIDATION_ERROR
	ErrNotAMember        403 NOT_A_MEMBER
	ErrRoomNotFound      404 ROOM_NOT_FOUND
	ErrRoomNotJoinable   409 ROOM_NOT_JOINABLE
	ErrDuplicateVote     409 DUPLICATE_VOTE
	ErrRetryable         503 SERVICE_UNAVAILABLE with Retry-After
*/
package api
