// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package events carries observer notifications over watermill.
//
// Side effects of a vote (activity feed, downstream consumers) are decoupled
// from the vote itself: the engine commits, then hands the outcome to a
// Notifier which publishes in the background. A failed publication is logged
// and counted, never reported to the voter.
//
// Topics are "<prefix>.<kind>", for example "trinity.vote.recorded",
// "trinity.match.found" and "trinity.supply.fallback".
//
// Two transports are supported through Bus:
//
//   - gochannel (default): in-process, no external dependency.
//   - nats: core NATS via watermill-nats, optionally against an embedded
//     nats-server started in-process (events.embedded_nats).
//
// Recorder is the built-in subscriber. It runs under the supervisor and
// appends every event to the room's activity feed in the store.
package events
