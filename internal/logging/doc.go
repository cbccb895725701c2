// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package logging provides the process-wide zerolog logger for Trinity.
//
// Call Init once from main with the values loaded by internal/config; until
// then a JSON logger at info level writes to stderr.
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//	logging.Info().Int("port", cfg.Server.Port).Msg("listening")
//
// Request handlers log through Ctx so that request, correlation and user ids
// are attached automatically:
//
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("shown marking failed")
//
// NewSlogLogger bridges log/slog consumers (the suture supervisor) onto the
// same output.
package logging
