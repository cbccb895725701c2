// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/validation"
)

// Seed is the room directory bootstrap file:
//
//	rooms:
//	  - id: friday-night
//	    required_votes: 2
//	    filters: {media_type: movie, genres: [action, comedy]}
//	    candidates: ["550", "13"]
//	    members: [alice, bob, carol]
type Seed struct {
	Rooms []SeedRoom `koanf:"rooms" json:"rooms" validate:"dive"`
}

// SeedRoom describes one room and its members. Candidates is optional; rooms
// without one get their list from the supply cache on first use.
type SeedRoom struct {
	ID            string         `koanf:"id" json:"id" validate:"required,max=64,entity_id"`
	RequiredVotes int            `koanf:"required_votes" json:"required_votes" validate:"gte=1"`
	Filters       models.Filters `koanf:"filters" json:"filters"`
	Candidates    []string       `koanf:"candidates" json:"candidates" validate:"dive,required,max=128,entity_id"`
	Members       []string       `koanf:"members" json:"members" validate:"dive,required,max=128,entity_id"`
}

// SeedResult counts what a seed run created.
type SeedResult struct {
	RoomsCreated   int
	RoomsSkipped   int
	MembersCreated int
}

// LoadSeedFile parses and validates a YAML seed file.
func LoadSeedFile(path string) (*Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load seed file %s: %w", path, err)
	}
	var seed Seed
	if err := k.Unmarshal("", &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	if verr := validation.ValidateStruct(&seed); verr != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, verr)
	}
	return &seed, nil
}

// ApplySeed creates the rooms and memberships of seed that do not exist yet.
// Existing rooms are left untouched, but missing memberships are still added.
func (s *Store) ApplySeed(ctx context.Context, seed *Seed) (SeedResult, error) {
	var res SeedResult
	for i := range seed.Rooms {
		sr := &seed.Rooms[i]
		room := &models.Room{
			ID:            sr.ID,
			Status:        models.RoomWaiting,
			RequiredVotes: sr.RequiredVotes,
			CandidateList: sr.Candidates,
			Filters:       sr.Filters.Normalize(),
		}
		created, err := s.PutRoomIfAbsent(ctx, room)
		if err != nil {
			return res, fmt.Errorf("seed room %s: %w", sr.ID, err)
		}
		if created {
			res.RoomsCreated++
		} else {
			res.RoomsSkipped++
		}

		for _, userID := range sr.Members {
			ok, err := s.AddMemberIfAbsent(ctx, sr.ID, userID)
			if err != nil {
				return res, fmt.Errorf("seed member %s of room %s: %w", userID, sr.ID, err)
			}
			if ok {
				res.MembersCreated++
			}
		}
	}

	logging.Info().
		Int("rooms_created", res.RoomsCreated).
		Int("rooms_skipped", res.RoomsSkipped).
		Int("members_created", res.MembersCreated).
		Msg("Room seed applied")
	return res, nil
}

// SeedFromFile loads path and applies it. An empty path is a no-op.
func (s *Store) SeedFromFile(ctx context.Context, path string) (SeedResult, error) {
	if path == "" {
		return SeedResult{}, nil
	}
	seed, err := LoadSeedFile(path)
	if err != nil {
		return SeedResult{}, err
	}
	return s.ApplySeed(ctx, seed)
}
