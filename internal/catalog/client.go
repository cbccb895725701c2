// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/validation"
)

// ErrNoResults means the catalog answered but nothing usable matched the
// filters. It does not indicate an unhealthy upstream.
var ErrNoResults = errors.New("catalog returned no valid items")

// errRateLimited marks a 429 response; it never leaves this package.
var errRateLimited = errors.New("rate limited")

// Client talks to the TMDB discover API.
type Client struct {
	baseURL        string
	apiKey         string
	language       string
	httpClient     *http.Client
	limiter        *rate.Limiter
	requestTimeout time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
	maxRetryDelay  time.Duration
	maxPages       int
}

// NewClient builds a client from the catalog configuration. Outgoing requests
// are spaced at least cfg.MinInterval apart.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		language:       cfg.Language,
		httpClient:     &http.Client{},
		limiter:        rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		requestTimeout: cfg.RequestTimeout,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		maxRetryDelay:  cfg.MaxRetryDelay,
		maxPages:       cfg.MaxPages,
	}
}

// discoverResponse is the subset of /discover/{movie,tv} the engine reads.
type discoverResponse struct {
	Page       int       `json:"page"`
	Results    []rawItem `json:"results"`
	TotalPages int       `json:"total_pages"`
}

// rawItem carries both the movie and tv spellings of title and date.
type rawItem struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Name         string   `json:"name"`
	Overview     string   `json:"overview"`
	PosterPath   string   `json:"poster_path"`
	GenreIDs     []int    `json:"genre_ids"`
	VoteAverage  *float64 `json:"vote_average"`
	ReleaseDate  string   `json:"release_date"`
	FirstAirDate string   `json:"first_air_date"`
}

// item is a rawItem after the media-specific fields are merged. Items that
// fail validation are discarded.
type item struct {
	ID          int64    `json:"id" validate:"gt=0"`
	Title       string   `json:"title" validate:"required"`
	Overview    string   `json:"overview" validate:"required"`
	PosterPath  string   `json:"poster_path" validate:"required"`
	GenreIDs    []int    `json:"genre_ids"`
	Rating      *float64 `json:"vote_average" validate:"required,gte=0,lte=10"`
	ReleaseDate string   `json:"release_date" validate:"required"`
}

func (r *rawItem) normalize() item {
	it := item{
		ID:          r.ID,
		Title:       strings.TrimSpace(r.Title),
		Overview:    strings.TrimSpace(r.Overview),
		PosterPath:  r.PosterPath,
		GenreIDs:    r.GenreIDs,
		Rating:      r.VoteAverage,
		ReleaseDate: r.ReleaseDate,
	}
	if it.Title == "" {
		it.Title = strings.TrimSpace(r.Name)
	}
	if it.ReleaseDate == "" {
		it.ReleaseDate = r.FirstAirDate
	}
	return it
}

func (it *item) candidate(media models.MediaType) models.Candidate {
	return models.Candidate{
		ID:          strconv.FormatInt(it.ID, 10),
		Title:       it.Title,
		Overview:    it.Overview,
		PosterPath:  it.PosterPath,
		GenreIDs:    it.GenreIDs,
		Rating:      *it.Rating,
		ReleaseDate: it.ReleaseDate,
		MediaType:   media,
	}
}

// Page is one validated discover page.
type Page struct {
	Items      []models.Candidate
	Dropped    int
	TotalPages int
}

// Discover fetches a single discover page.
func (c *Client) Discover(ctx context.Context, media models.MediaType, genreIDs []int, page int) (*Page, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("page", strconv.Itoa(page))
	q.Set("include_adult", "false")
	q.Set("sort_by", "popularity.desc")
	if c.language != "" {
		q.Set("language", c.language)
	}
	if len(genreIDs) > 0 {
		parts := make([]string, len(genreIDs))
		for i, id := range genreIDs {
			parts[i] = strconv.Itoa(id)
		}
		// '|' asks TMDB for items in any of the genres.
		q.Set("with_genres", strings.Join(parts, "|"))
	}
	endpoint := fmt.Sprintf("%s/discover/%s?%s", c.baseURL, media, q.Encode())

	var resp discoverResponse
	if err := c.getWithRetry(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	out := &Page{TotalPages: resp.TotalPages}
	for i := range resp.Results {
		it := resp.Results[i].normalize()
		if verr := validation.ValidateStruct(&it); verr != nil {
			out.Dropped++
			logging.Ctx(ctx).Debug().
				Int64("tmdb_id", it.ID).
				Strs("fields", verr.Fields()).
				Msg("Discarding incomplete catalog item")
			continue
		}
		out.Items = append(out.Items, it.candidate(media))
	}
	if out.Dropped > 0 {
		metrics.CatalogItemsDropped.Add(float64(out.Dropped))
	}
	return out, nil
}

// Fetch collects up to limit distinct items matching filters, reading
// successive pages until enough valid items exist, the catalog runs out of
// pages or max_pages is reached. Transport failures, timeouts and non-2xx
// responses wrap models.ErrUpstreamUnavailable. ErrNoResults is returned when
// the catalog answered with nothing usable.
func (c *Client) Fetch(ctx context.Context, filters models.Filters, limit int) ([]models.Candidate, error) {
	start := time.Now()
	defer func() {
		metrics.CatalogFetchDuration.Observe(time.Since(start).Seconds())
	}()

	filters = filters.Normalize()
	genreIDs, dropped := GenreIDs(filters.MediaType, filters.Genres)
	if len(dropped) > 0 {
		logging.Ctx(ctx).Info().
			Str("media_type", string(filters.MediaType)).
			Strs("genres", dropped).
			Msg("Dropping genres with no catalog equivalent")
	}

	seen := make(map[string]bool, limit)
	items := make([]models.Candidate, 0, limit)
	for page := 1; page <= c.maxPages && len(items) < limit; page++ {
		p, err := c.Discover(ctx, filters.MediaType, genreIDs, page)
		if err != nil {
			return nil, err
		}
		for _, it := range p.Items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			items = append(items, it)
		}
		if page >= p.TotalPages {
			break
		}
	}

	if len(items) == 0 {
		return nil, ErrNoResults
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// getWithRetry performs a GET and decodes the JSON body into out. HTTP 429 is
// retried with exponential backoff, or after Retry-After when the server
// sends one, up to maxRetries times. Backoff is capped at maxRetryDelay; a
// Retry-After beyond the cap is not waited for.
func (c *Client) getWithRetry(ctx context.Context, endpoint string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %w", models.ErrUpstreamUnavailable, err)
		}

		retryAfter, err := c.get(ctx, endpoint, out)
		if !errors.Is(err, errRateLimited) {
			return err
		}

		metrics.CatalogRateLimited.Inc()
		if attempt >= c.maxRetries {
			return fmt.Errorf("%w: rate limit exceeded after %d retries (HTTP 429)", models.ErrUpstreamUnavailable, c.maxRetries)
		}

		delay := c.retryBaseDelay * (1 << attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		if c.maxRetryDelay > 0 && delay > c.maxRetryDelay {
			if retryAfter > 0 {
				return fmt.Errorf("%w: Retry-After %s exceeds max retry delay %s (HTTP 429)",
					models.ErrUpstreamUnavailable, retryAfter, c.maxRetryDelay)
			}
			delay = c.maxRetryDelay
		}
		logging.Ctx(ctx).Warn().
			Dur("retry_delay", delay).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("Catalog rate limited (HTTP 429), retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
}

// get performs one request bounded by requestTimeout.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) (time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordCatalogResponse(0)
		return 0, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, redact(err))
	}
	defer resp.Body.Close()
	metrics.RecordCatalogResponse(resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return parseRetryAfter(resp.Header.Get("Retry-After")), errRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: HTTP %d: %s", models.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %w", models.ErrUpstreamUnavailable, err)
	}
	return 0, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date (RFC 9110 10.2.3).
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// redact strips the query string, which carries the API key, from URL errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
		}
	}
	return err
}
