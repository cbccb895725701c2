// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package store is the BadgerDB persistence layer.
//
// Key layout (values are JSON):
//
//	room:<roomID>                          models.Room (shown ids are kept separately)
//	member:<roomID>:<userID>               models.Member
//	shown:<roomID>:<candidateID>           time first shown
//	vote:<roomID>:<userID>#<candidateID>   models.Vote, write-once
//	tally:<roomID>:<candidateID>           models.Tally
//	match:<roomID>                         models.Match, at most one per room
//	cache:<key>                            models.CacheEntry
//	activity:<roomID>:<seq>                models.Activity
//
// Identifiers never contain ':' or '#'; validation.ValidateID enforces this
// at the API boundary and the seed loader enforces it for seeded rooms.
//
// # Transactions
//
// Every read-modify-write runs in a Badger serializable transaction. When
// Badger reports ErrConflict the whole closure is re-run, up to
// store.txn_retries attempts. A POSITIVE vote creates its vote record,
// increments the tally and activates a WAITING room in a single transaction,
// so a duplicate can never double count. Match finalization is a separate
// conditional transaction: the first writer moves the room to MATCHED and
// every later attempt is a no-op that returns the existing match.
package store
