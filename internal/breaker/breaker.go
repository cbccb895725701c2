// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package breaker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
)

// Phase is the externally visible breaker state.
type Phase string

const (
	PhaseClosed   Phase = "CLOSED"
	PhaseOpen     Phase = "OPEN"
	PhaseHalfOpen Phase = "HALF_OPEN"
)

// State is a point-in-time snapshot of a breaker. It lives only in process
// memory; a restart begins CLOSED with zero counts.
type State struct {
	Name          string    `json:"name"`
	Phase         Phase     `json:"phase"`
	FailureCount  uint32    `json:"failure_count"`
	SuccessCount  uint32    `json:"success_count"`
	LastFailureAt time.Time `json:"last_failure_at,omitempty"`
}

// Settings configures one breaker instance.
type Settings struct {
	Name string
	// FailureThreshold consecutive failures in CLOSED open the breaker.
	FailureThreshold uint32
	// SuccessThreshold consecutive successes in HALF_OPEN close it.
	SuccessThreshold uint32
	// OpenTimeout is the minimum dwell time in OPEN.
	OpenTimeout time.Duration
	// ResetWindow clears the CLOSED failure count when no failure occurred
	// for that long. Zero disables it.
	ResetWindow time.Duration
	// IsSuccessful classifies primary errors that do not indicate an
	// unhealthy dependency. Such errors still trigger the fallback but are
	// not counted as failures. Nil treats every error as a failure.
	IsSuccessful func(err error) bool
}

// SettingsFromConfig builds Settings for a named dependency.
func SettingsFromConfig(name string, cfg config.BreakerConfig) Settings {
	return Settings{
		Name:             name,
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		OpenTimeout:      cfg.OpenTimeout,
		ResetWindow:      cfg.ResetWindow,
	}
}

// Breaker isolates callers from an unreliable dependency. Every call goes
// through Execute, which always answers from either the primary or the
// fallback; the primary's error is never returned.
type Breaker[T any] struct {
	cb           *gobreaker.CircuitBreaker[T]
	name         string
	isSuccessful func(err error) bool
	lastFailure  atomic.Int64
	failures     *failureWindow
	// trial admits a single primary call while HALF_OPEN.
	trial chan struct{}
}

// ErrTrialInProgress rejects a call that arrives while the HALF_OPEN trial is
// still running.
var ErrTrialInProgress = errors.New("circuit breaker trial in progress")

// failureWindow counts consecutive CLOSED failures. The count restarts when
// a success intervened or when the previous failure is older than window.
type failureWindow struct {
	mu     sync.Mutex
	window time.Duration
	count  uint32
	last   time.Time
}

// record is called by gobreaker for every CLOSED failure with its own
// counts; streak is gobreaker's consecutive failures, which is 1 after a
// success or a state change.
func (w *failureWindow) record(now time.Time, streak uint32) uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if streak <= 1 || (w.window > 0 && now.Sub(w.last) >= w.window) {
		w.count = 0
	}
	w.count++
	w.last = now
	return w.count
}

func (w *failureWindow) value() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *failureWindow) reset() {
	w.mu.Lock()
	w.count = 0
	w.mu.Unlock()
}

// New creates a breaker. Zero thresholds are raised to 1.
func New[T any](s Settings) *Breaker[T] {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.Name).Set(0)

	threshold := s.FailureThreshold
	b := &Breaker[T]{
		name:         s.Name,
		isSuccessful: s.IsSuccessful,
		failures:     &failureWindow{window: s.ResetWindow},
		trial:        make(chan struct{}, 1),
	}
	// S sequential trials close the breaker while run admits one at a time.
	// Counts never expire on a schedule (Interval 0); failureWindow applies
	// the reset window relative to the last failure.
	gs := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.SuccessThreshold,
		Interval:    0,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return b.failures.record(time.Now(), counts.ConsecutiveFailures) >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				b.failures.reset()
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	}
	if s.IsSuccessful != nil {
		gs.IsSuccessful = func(err error) bool {
			return err == nil || s.IsSuccessful(err)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker[T](gs)
	return b
}

// Name returns the dependency name the breaker protects.
func (b *Breaker[T]) Name() string {
	return b.name
}

// Execute runs primary when the breaker admits a call and fallback otherwise
// or when primary fails. fallback receives the reason it was invoked: either
// the primary's error or a rejection (see IsRejected). A fallback error is
// returned as is. Outside CLOSED at most one primary call is in flight; other
// callers are rejected with ErrTrialInProgress.
func (b *Breaker[T]) Execute(
	ctx context.Context,
	primary func(ctx context.Context) (T, error),
	fallback func(ctx context.Context, cause error) (T, error),
) (T, error) {
	result, err := b.run(ctx, primary)
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
		return result, nil
	}

	switch {
	case IsRejected(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Ctx(ctx).Debug().Str("breaker", b.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
	case b.isSuccessful != nil && b.isSuccessful(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		logging.Ctx(ctx).Debug().Str("breaker", b.name).Err(err).Msg("[CIRCUIT BREAKER] Primary declined, using fallback")
	default:
		b.lastFailure.Store(time.Now().UnixNano())
		failures := b.failures.value()
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(failures))
		logging.Ctx(ctx).Warn().
			Str("breaker", b.name).
			Uint32("consecutive_failures", failures).
			Err(err).
			Msg("[CIRCUIT BREAKER] Primary call failed, using fallback")
	}

	return fallback(ctx, err)
}

// run calls primary through gobreaker. Any state other than CLOSED needs
// the trial slot, so a breaker that turns HALF_OPEN runs one trial at a time.
func (b *Breaker[T]) run(ctx context.Context, primary func(ctx context.Context) (T, error)) (T, error) {
	if b.cb.State() != gobreaker.StateClosed {
		select {
		case b.trial <- struct{}{}:
			defer func() { <-b.trial }()
		default:
			var zero T
			return zero, ErrTrialInProgress
		}
	}
	return b.cb.Execute(func() (T, error) {
		return primary(ctx)
	})
}

// State returns a snapshot of the breaker. In OPEN, FailureCount is the
// count that tripped it.
func (b *Breaker[T]) State() State {
	counts := b.cb.Counts()
	phase := toPhase(b.cb.State())
	s := State{
		Name:         b.name,
		Phase:        phase,
		FailureCount: counts.ConsecutiveFailures,
		SuccessCount: counts.ConsecutiveSuccesses,
	}
	switch phase {
	case PhaseClosed:
		s.FailureCount = min(b.failures.value(), counts.ConsecutiveFailures)
	case PhaseOpen:
		s.FailureCount = b.failures.value()
	}
	if ns := b.lastFailure.Load(); ns != 0 {
		s.LastFailureAt = time.Unix(0, ns).UTC()
	}
	return s
}

// IsRejected reports whether err means the breaker refused the call without
// running the primary (OPEN, or HALF_OPEN with the trial already taken).
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, ErrTrialInProgress)
}

func toPhase(s gobreaker.State) Phase {
	switch s {
	case gobreaker.StateOpen:
		return PhaseOpen
	case gobreaker.StateHalfOpen:
		return PhaseHalfOpen
	default:
		return PhaseClosed
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
