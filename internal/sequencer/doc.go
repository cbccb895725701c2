// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package sequencer decides which candidate a room member sees next.
//
// Candidates are presented in the room's stored order, skipping every id the
// user already voted on, positively or negatively. Rooms without a candidate
// list get one from the supply service on first use.
package sequencer
