// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package auth

import (
	"errors"
	"net/http"

	"github.com/tomtom215/trinity/internal/logging"
)

// FailureHandler writes the response for a rejected request.
type FailureHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware enforces authentication on the routes it wraps.
type Middleware struct {
	authenticator Authenticator
	onFailure     FailureHandler
}

// NewMiddleware creates the middleware. A nil onFailure writes a plain 401.
func NewMiddleware(a Authenticator, onFailure FailureHandler) *Middleware {
	if onFailure == nil {
		onFailure = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}
	return &Middleware{authenticator: a, onFailure: onFailure}
}

// RequireUser rejects requests without a valid caller and stores the user id
// in the request context otherwise.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.authenticator.Authenticate(r)
		if err != nil {
			ev := logging.Ctx(r.Context()).Debug()
			if !errors.Is(err, ErrNoCredentials) {
				ev = logging.Ctx(r.Context()).Warn()
			}
			ev.Err(err).
				Str("auth_mode", m.authenticator.Name()).
				Str("path", r.URL.Path).
				Msg("Authentication failed")
			m.onFailure(w, r, err)
			return
		}
		ctx := logging.ContextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user of the request, or "".
func UserID(r *http.Request) string {
	return logging.UserIDFromContext(r.Context())
}
