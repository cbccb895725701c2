// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/trinity/internal/auth"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/models"
)

// writeDomainError maps the domain error taxonomy onto HTTP. Order matters:
// ErrRoomNotFound is also an ErrRoomNotJoinable.
func writeDomainError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		rw.ValidationError(err.Error(), nil)
	case errors.Is(err, models.ErrRoomNotFound):
		rw.Error(http.StatusNotFound, ErrCodeRoomNotFound, "room not found")
	case errors.Is(err, models.ErrRoomNotJoinable):
		rw.Error(http.StatusConflict, ErrCodeRoomNotJoinable, "room does not accept votes")
	case errors.Is(err, models.ErrNotAMember):
		rw.Error(http.StatusForbidden, ErrCodeNotAMember, "not a member of this room")
	case errors.Is(err, models.ErrDuplicateVote):
		rw.Error(http.StatusConflict, ErrCodeDuplicateVote, "vote already recorded")
	case errors.Is(err, models.ErrRetryable),
		errors.Is(err, context.DeadlineExceeded):
		rw.w.Header().Set("Retry-After", "1")
		rw.ServiceUnavailable("temporary failure, retry")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		logging.Ctx(rw.r.Context()).Debug().Err(err).Msg("Request canceled")
	default:
		logging.Ctx(rw.r.Context()).Error().Err(err).Str("path", rw.r.URL.Path).Msg("Unhandled error")
		rw.InternalError("internal error")
	}
}

// writeAuthError is the auth middleware's failure handler.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	msg := "authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredCredentials):
		msg = "credentials expired"
	case errors.Is(err, auth.ErrInvalidCredentials):
		msg = "invalid credentials"
	}
	rw.Unauthorized(msg)
}
