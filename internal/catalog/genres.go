// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package catalog

import (
	"sort"

	"github.com/tomtom215/trinity/internal/models"
)

// genreTable maps logical genre names to TMDB genre ids per media type. TV
// merges several movie genres into combined ids and has no equivalent for
// some of them; those names are missing from the tv table.
var genreTable = map[models.MediaType]map[string]int{
	models.MediaMovie: {
		"action":          28,
		"adventure":       12,
		"animation":       16,
		"comedy":          35,
		"crime":           80,
		"documentary":     99,
		"drama":           18,
		"family":          10751,
		"fantasy":         14,
		"history":         36,
		"horror":          27,
		"music":           10402,
		"mystery":         9648,
		"romance":         10749,
		"science_fiction": 878,
		"tv_movie":        10770,
		"thriller":        53,
		"war":             10752,
		"western":         37,
	},
	models.MediaTV: {
		"action":          10759,
		"adventure":       10759,
		"animation":       16,
		"comedy":          35,
		"crime":           80,
		"documentary":     99,
		"drama":           18,
		"family":          10751,
		"fantasy":         10765,
		"kids":            10762,
		"mystery":         9648,
		"science_fiction": 10765,
		"war":             10768,
		"western":         37,
	},
}

// GenreIDs resolves logical genre names for a media type. The ids are
// deduplicated and sorted; names with no id for the media type are returned
// in dropped.
func GenreIDs(media models.MediaType, genres []string) (ids []int, dropped []string) {
	table := genreTable[media]
	seen := make(map[int]bool, len(genres))
	for _, g := range genres {
		id, ok := table[g]
		if !ok {
			dropped = append(dropped, g)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, dropped
}

// KnownGenre reports whether name maps to an id for any media type.
func KnownGenre(name string) bool {
	for _, table := range genreTable {
		if _, ok := table[name]; ok {
			return true
		}
	}
	return false
}
