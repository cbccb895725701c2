// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import (
	"sort"
	"strings"
	"time"
)

// MediaType selects the upstream catalog namespace.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// Filters describe how a candidate pool is populated. Genres are logical
// names ("action", "comedy"); catalog IDs are resolved per media type.
type Filters struct {
	MediaType MediaType `json:"media_type" koanf:"media_type" validate:"omitempty,oneof=movie tv"`
	Genres    []string  `json:"genres,omitempty" koanf:"genres" validate:"dive,required,max=32"`
}

// Normalize lower-cases and sorts genres, drops duplicates and defaults the
// media type to movie. Two filter values that select the same pool normalize
// to the same value.
func (f Filters) Normalize() Filters {
	out := Filters{MediaType: f.MediaType}
	if out.MediaType == "" {
		out.MediaType = MediaMovie
	}
	seen := make(map[string]bool, len(f.Genres))
	for _, g := range f.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out.Genres = append(out.Genres, g)
	}
	sort.Strings(out.Genres)
	return out
}

// Candidate is one item a room can vote on.
type Candidate struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	PosterPath  string    `json:"poster_path"`
	GenreIDs    []int     `json:"genre_ids,omitempty"`
	Rating      float64   `json:"rating"`
	ReleaseDate string    `json:"release_date"`
	MediaType   MediaType `json:"media_type"`
}

// CacheEntry is an immutable snapshot of a candidate pool. Expired entries
// are treated as absent; there is no background eviction.
type CacheEntry struct {
	Key       string      `json:"key"`
	Items     []Candidate `json:"items"`
	Filters   Filters     `json:"filters"`
	CachedAt  time.Time   `json:"cached_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Fresh reports whether the entry is still inside its TTL at now.
func (e *CacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// WithinGrace reports whether a stale entry may still serve as a fallback.
func (e *CacheEntry) WithinGrace(now time.Time, grace time.Duration) bool {
	return now.Before(e.ExpiresAt.Add(grace))
}

// Find returns the candidate with the given id.
func (e *CacheEntry) Find(id string) (Candidate, bool) {
	for _, c := range e.Items {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
