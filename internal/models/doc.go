// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package models defines the records shared by the consensus engine, the
// sequencer and the content supply cache, together with the error taxonomy
// returned across package boundaries.
package models
