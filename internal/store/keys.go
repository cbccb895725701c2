// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"fmt"
	"strings"
)

// Key prefixes. Identifiers never contain ':' or '#', so every prefix scan
// below is unambiguous.
const (
	prefixRoom     = "room:"
	prefixMember   = "member:"
	prefixShown    = "shown:"
	prefixVote     = "vote:"
	prefixTally    = "tally:"
	prefixMatch    = "match:"
	prefixCache    = "cache:"
	prefixActivity = "activity:"

	activitySeqKey = "seq:activity"
)

func roomKey(roomID string) []byte {
	return []byte(prefixRoom + roomID)
}

func memberKey(roomID, userID string) []byte {
	return []byte(prefixMember + roomID + ":" + userID)
}

func memberPrefix(roomID string) []byte {
	return []byte(prefixMember + roomID + ":")
}

func shownKey(roomID, candidateID string) []byte {
	return []byte(prefixShown + roomID + ":" + candidateID)
}

func shownPrefix(roomID string) []byte {
	return []byte(prefixShown + roomID + ":")
}

func voteKey(roomID, userID, candidateID string) []byte {
	return []byte(prefixVote + roomID + ":" + userID + "#" + candidateID)
}

// userVotePrefix selects every vote one user cast in a room.
func userVotePrefix(roomID, userID string) []byte {
	return []byte(prefixVote + roomID + ":" + userID + "#")
}

func roomVotePrefix(roomID string) []byte {
	return []byte(prefixVote + roomID + ":")
}

func tallyKey(roomID, candidateID string) []byte {
	return []byte(prefixTally + roomID + ":" + candidateID)
}

func tallyPrefix(roomID string) []byte {
	return []byte(prefixTally + roomID + ":")
}

func matchKey(roomID string) []byte {
	return []byte(prefixMatch + roomID)
}

func cacheKey(key string) []byte {
	return []byte(prefixCache + key)
}

func activityKey(roomID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixActivity, roomID, seq))
}

func activityPrefix(roomID string) []byte {
	return []byte(prefixActivity + roomID + ":")
}

// suffixAfter returns the part of key following prefix.
func suffixAfter(key, prefix []byte) string {
	return strings.TrimPrefix(string(key), string(prefix))
}
