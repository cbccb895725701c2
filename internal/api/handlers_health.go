// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/trinity/internal/breaker"
	"github.com/tomtom215/trinity/internal/logging"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of /healthz.
type HealthStatus struct {
	// Status is "healthy", "degraded" (catalog breaker not closed) or
	// "unhealthy" (store unreachable).
	Status         string        `json:"status"`
	StoreConnected bool          `json:"store_connected"`
	Breaker        breaker.State `json:"breaker"`
	Uptime         float64       `json:"uptime_seconds"`
}

// Health handles GET /healthz. It answers 503 only when the store is down;
// an open catalog breaker still serves fallbacks and reports degraded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	pingErr := h.rooms.Ping(ctx)

	status := HealthStatus{
		Status:         "healthy",
		StoreConnected: pingErr == nil,
		Breaker:        h.supply.BreakerState(),
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if status.Breaker.Phase != breaker.PhaseClosed {
		status.Status = "degraded"
	}
	if pingErr != nil {
		logging.Ctx(r.Context()).Warn().Err(pingErr).Msg("Health check: store ping failed")
		status.Status = "unhealthy"
		rw.Status(http.StatusServiceUnavailable, status)
		return
	}
	rw.Success(status)
}
