// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package supply

import "github.com/tomtom215/trinity/internal/models"

// defaultCandidates is served when neither the catalog nor any cached entry
// can supply a room.
var defaultCandidates = []models.Candidate{
	{
		ID:          "550",
		Title:       "Fight Club",
		Overview:    "An insomniac office worker and a devil-may-care soapmaker form an underground fight club.",
		PosterPath:  "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
		GenreIDs:    []int{18},
		Rating:      8.4,
		ReleaseDate: "1999-10-15",
		MediaType:   models.MediaMovie,
	},
	{
		ID:          "13",
		Title:       "Forrest Gump",
		Overview:    "A man with a low IQ has accomplished great things in his life and been present during significant historic events.",
		PosterPath:  "/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg",
		GenreIDs:    []int{35, 18, 10749},
		Rating:      8.5,
		ReleaseDate: "1994-06-23",
		MediaType:   models.MediaMovie,
	},
	{
		ID:          "278",
		Title:       "The Shawshank Redemption",
		Overview:    "Two imprisoned men bond over a number of years, finding solace and eventual redemption through acts of common decency.",
		PosterPath:  "/q6y0Go1tsGEsmtFryDOJo3dEmqu.jpg",
		GenreIDs:    []int{18},
		Rating:      9.3,
		ReleaseDate: "1994-09-23",
		MediaType:   models.MediaMovie,
	},
	{
		ID:          "238",
		Title:       "The Godfather",
		Overview:    "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.",
		PosterPath:  "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg",
		GenreIDs:    []int{18, 80},
		Rating:      9.2,
		ReleaseDate: "1972-03-14",
		MediaType:   models.MediaMovie,
	},
	{
		ID:          "424",
		Title:       "Schindler's List",
		Overview:    "In German-occupied Poland during World War II, industrialist Oskar Schindler gradually becomes concerned for his Jewish workforce.",
		PosterPath:  "/sF1U4EUQS8YHUYjNl3pMGNIQyr0.jpg",
		GenreIDs:    []int{18, 36, 10752},
		Rating:      9.0,
		ReleaseDate: "1993-11-30",
		MediaType:   models.MediaMovie,
	},
}

// DefaultCandidates returns a copy of the built-in default list.
func DefaultCandidates() []models.Candidate {
	out := make([]models.Candidate, len(defaultCandidates))
	for i, c := range defaultCandidates {
		c.GenreIDs = append([]int(nil), c.GenreIDs...)
		out[i] = c
	}
	return out
}
