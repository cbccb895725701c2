// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package supply

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trinity/internal/breaker"
	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/store"
)

// Source tells where a candidate list came from.
type Source string

const (
	SourceCache          Source = "cache"
	SourceUpstream       Source = "upstream"
	SourceFilterFallback Source = "filter_fallback"
	SourceDefault        Source = "default"
)

// Fallback tiers and reasons, as logged and counted.
const (
	tierFilterCache = "filter_cache"
	tierDefaultList = "default_list"

	reasonUpstreamUnavailable = "upstream_unavailable"
	reasonNoCandidates        = "no_candidates"
)

// Fetcher loads fresh candidates from the catalog.
type Fetcher interface {
	Fetch(ctx context.Context, filters models.Filters, limit int) ([]models.Candidate, error)
}

// CacheStore persists cache entries.
type CacheStore interface {
	GetCacheEntry(ctx context.Context, key string) (*models.CacheEntry, error)
	PutCacheEntry(ctx context.Context, entry *models.CacheEntry, retain time.Duration) error
}

// Observer is told when a room was supplied from a fallback tier.
type Observer interface {
	SupplyFallback(ctx context.Context, roomID, tier, reason string)
}

type fetchResult struct {
	items  []models.Candidate
	source Source
}

// Service is the cache-aside content supply. Catalog calls go through a
// circuit breaker whose fallback walks the stale filter cache and then the
// built-in default list, so GetCandidates only fails when the store does.
type Service struct {
	store    CacheStore
	fetcher  Fetcher
	breaker  *breaker.Breaker[fetchResult]
	cfg      config.CacheConfig
	observer Observer
	now      func() time.Time
	log      zerolog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserver registers a fallback observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// New builds the supply service. The catalog breaker is named "catalog".
func New(cs CacheStore, fetcher Fetcher, cacheCfg config.CacheConfig, breakerCfg config.BreakerConfig, opts ...Option) *Service {
	settings := breaker.SettingsFromConfig("catalog", breakerCfg)
	settings.IsSuccessful = func(err error) bool {
		return errors.Is(err, catalog.ErrNoResults)
	}

	s := &Service{
		store:   cs,
		fetcher: fetcher,
		breaker: breaker.New[fetchResult](settings),
		cfg:     cacheCfg,
		now:     time.Now,
		log:     logging.WithComponent("supply"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BreakerState reports the catalog breaker for health checks.
func (s *Service) BreakerState() breaker.State {
	return s.breaker.State()
}

// RoomKey is the cache key of a room's candidate pool.
func RoomKey(roomID string) string {
	return "room/" + roomID
}

// FilterKey is the cache key shared by every room with equivalent filters:
// "filter/<media>/<sorted upstream genre ids>", or ".../all" without genres.
func FilterKey(filters models.Filters) string {
	f := filters.Normalize()
	ids, _ := catalog.GenreIDs(f.MediaType, f.Genres)
	if len(ids) == 0 {
		return "filter/" + string(f.MediaType) + "/all"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "filter/" + string(f.MediaType) + "/" + strings.Join(parts, ",")
}

func roomIDFromKey(key string) string {
	return strings.TrimPrefix(key, "room/")
}

func cacheType(key string) string {
	if strings.HasPrefix(key, "room/") {
		return "room"
	}
	return "filter"
}

// GetCandidates returns the candidate pool for key. A fresh cache entry is
// returned without contacting the catalog. On a miss the catalog is queried
// through the breaker and the result cached under key and under the filter
// key; if that fails the stale filter entry (within stale_grace) or else the
// default list is returned.
func (s *Service) GetCandidates(ctx context.Context, key string, filters models.Filters) ([]models.Candidate, Source, error) {
	filters = filters.Normalize()
	now := s.now()
	ctype := cacheType(key)

	entry, err := s.store.GetCacheEntry(ctx, key)
	switch {
	case err == nil && entry.Fresh(now):
		metrics.CacheHits.WithLabelValues(ctype).Inc()
		return entry.Items, SourceCache, nil
	case err != nil && !errors.Is(err, store.ErrCacheMiss):
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
	}
	metrics.CacheMisses.WithLabelValues(ctype).Inc()

	res, err := s.breaker.Execute(ctx,
		func(ctx context.Context) (fetchResult, error) {
			return s.fetch(ctx, key, filters)
		},
		func(ctx context.Context, cause error) (fetchResult, error) {
			return s.fallback(ctx, key, filters, cause)
		},
	)
	if err != nil {
		return nil, "", err
	}
	return res.items, res.source, nil
}

// fetch runs under the breaker. The catalog call, with all of its pages and
// retries, is bounded by fetch_timeout so the fallback is reached in time.
func (s *Service) fetch(ctx context.Context, key string, filters models.Filters) (fetchResult, error) {
	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	items, err := s.fetcher.Fetch(fetchCtx, filters, s.cfg.PageSize)
	if err != nil {
		return fetchResult{}, err
	}

	now := s.now()
	retain := s.cfg.TTL + s.cfg.StaleGrace
	keys := []string{key}
	if fk := FilterKey(filters); fk != key {
		keys = append(keys, fk)
	}
	for _, k := range keys {
		entry := &models.CacheEntry{
			Key:       k,
			Items:     items,
			Filters:   filters,
			CachedAt:  now,
			ExpiresAt: now.Add(s.cfg.TTL),
		}
		if err := s.store.PutCacheEntry(ctx, entry, retain); err != nil {
			s.log.Warn().Err(err).Str("key", k).Msg("Failed to cache catalog result")
		}
	}

	s.log.Debug().Str("key", key).Int("items", len(items)).Msg("Supplied from catalog")
	return fetchResult{items: items, source: SourceUpstream}, nil
}

func (s *Service) fallback(ctx context.Context, key string, filters models.Filters, cause error) (fetchResult, error) {
	now := s.now()
	fk := FilterKey(filters)

	entry, err := s.store.GetCacheEntry(ctx, fk)
	switch {
	case err == nil && len(entry.Items) > 0 && entry.WithinGrace(now, s.cfg.StaleGrace):
		items := entry.Items
		if len(items) > s.cfg.PageSize {
			items = items[:s.cfg.PageSize]
		}
		metrics.SupplyFallbacks.WithLabelValues(tierFilterCache).Inc()
		s.log.Info().
			Str("key", key).
			Str("filter_key", fk).
			Time("cached_at", entry.CachedAt).
			AnErr("cause", cause).
			Msg("Catalog unavailable, serving filter cache")
		s.notify(ctx, key, tierFilterCache, reasonUpstreamUnavailable)
		return fetchResult{items: items, source: SourceFilterFallback}, nil
	case err != nil && !errors.Is(err, store.ErrCacheMiss):
		if ctx.Err() != nil {
			return fetchResult{}, ctx.Err()
		}
		s.log.Warn().Err(err).Str("key", fk).Msg("Filter cache read failed")
	}

	reason := reasonUpstreamUnavailable
	if errors.Is(cause, catalog.ErrNoResults) {
		reason = reasonNoCandidates
	}
	items := DefaultCandidates()
	defEntry := &models.CacheEntry{
		Key:       key,
		Items:     items,
		Filters:   filters,
		CachedAt:  now,
		ExpiresAt: now.Add(s.cfg.DefaultTTL),
	}
	if err := s.store.PutCacheEntry(ctx, defEntry, s.cfg.DefaultTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache default candidates")
	}

	metrics.SupplyFallbacks.WithLabelValues(tierDefaultList).Inc()
	s.log.Warn().
		Str("key", key).
		Str("reason", reason).
		AnErr("cause", cause).
		Msg("Serving default candidates")
	s.notify(ctx, key, tierDefaultList, reason)
	return fetchResult{items: items, source: SourceDefault}, nil
}

func (s *Service) notify(ctx context.Context, key, tier, reason string) {
	if s.observer == nil || cacheType(key) != "room" {
		return
	}
	s.observer.SupplyFallback(ctx, roomIDFromKey(key), tier, reason)
}

// FindCandidate looks up a candidate's metadata in the room's cache entry,
// then the filter entry, then the default list. Expired entries are still
// consulted. ok is false when the id is unknown everywhere.
func (s *Service) FindCandidate(ctx context.Context, roomID string, filters models.Filters, candidateID string) (models.Candidate, bool) {
	for _, key := range []string{RoomKey(roomID), FilterKey(filters)} {
		entry, err := s.store.GetCacheEntry(ctx, key)
		if err != nil {
			continue
		}
		if c, ok := entry.Find(candidateID); ok {
			return c, true
		}
	}
	for _, c := range defaultCandidates {
		if c.ID == candidateID {
			return c, true
		}
	}
	return models.Candidate{}, false
}
