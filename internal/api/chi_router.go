// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/trinity/internal/auth"
	"github.com/tomtom215/trinity/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	auth          *auth.Middleware
}

// NewRouter creates a router. authenticator identifies voters on /api/v1.
func NewRouter(handler *Handler, mw *ChiMiddleware, authenticator auth.Authenticator) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
		auth:          auth.NewMiddleware(authenticator, writeAuthError),
	}
}

// SetupChi returns the root handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusNotFound, ErrCodeNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/rooms/{roomID}", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.auth.RequireUser)

		r.Post("/votes", router.handler.SubmitVote)
		r.Get("/next", router.handler.NextCandidate)
		r.Get("/candidates", router.handler.Candidates)
		r.Get("/activity", router.handler.Activity)
	})

	return r
}
