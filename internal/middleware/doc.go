// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package middleware holds the HTTP middleware shared by the API router:
// request ids, Prometheus instrumentation and access logging.
package middleware
