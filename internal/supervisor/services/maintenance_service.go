// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/logging"
)

// GarbageCollector is implemented by *store.Store.
type GarbageCollector interface {
	RunGC(ctx context.Context, discardRatio float64) (int, error)
}

// TallyReconciler is implemented by *consensus.Reconciler.
type TallyReconciler interface {
	Reconcile(ctx context.Context) (consensus.ReconcileReport, error)
}

// MaintenanceConfig schedules the periodic store jobs.
type MaintenanceConfig struct {
	// GCInterval is how often the value log is compacted. Zero disables GC.
	GCInterval time.Duration

	// GCDiscardRatio is passed to Badger's value-log GC.
	GCDiscardRatio float64

	// ReconcileInterval is how often tallies are repaired and pending
	// matches finalized. Zero disables reconciliation.
	ReconcileInterval time.Duration

	// ReconcileOnStartup runs one reconciliation pass before the first tick,
	// closing any gap a crash left between a vote and its match.
	ReconcileOnStartup bool
}

// MaintenanceService runs value-log GC and tally reconciliation on their own
// tickers. Job failures are logged and retried on the next tick; they never
// make Serve return.
type MaintenanceService struct {
	gc         GarbageCollector
	reconciler TallyReconciler
	config     MaintenanceConfig
	logger     zerolog.Logger
	name       string
}

// NewMaintenanceService creates the service. reconciler may be nil.
func NewMaintenanceService(gc GarbageCollector, reconciler TallyReconciler, cfg MaintenanceConfig) *MaintenanceService {
	return &MaintenanceService{
		gc:         gc,
		reconciler: reconciler,
		config:     cfg,
		logger:     logging.WithComponent("maintenance"),
		name:       "store-maintenance",
	}
}

// Serve implements suture.Service.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("gc_interval", s.config.GCInterval).
		Dur("reconcile_interval", s.config.ReconcileInterval).
		Msg("Store maintenance starting")

	if s.config.ReconcileOnStartup {
		s.reconcile(ctx)
	}

	gcTick := tickerChan(s.config.GCInterval)
	reconcileTick := tickerChan(s.config.ReconcileInterval)
	defer gcTick.stop()
	defer reconcileTick.stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Store maintenance shutting down")
			return ctx.Err()
		case <-gcTick.c:
			s.collect(ctx)
		case <-reconcileTick.c:
			s.reconcile(ctx)
		}
	}
}

func (s *MaintenanceService) collect(ctx context.Context) {
	if s.gc == nil {
		return
	}
	start := time.Now()
	rewritten, err := s.gc.RunGC(ctx, s.config.GCDiscardRatio)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Value log GC failed")
		return
	}
	s.logger.Debug().
		Int("files_rewritten", rewritten).
		Dur("duration", time.Since(start)).
		Msg("Value log GC complete")
}

func (s *MaintenanceService) reconcile(ctx context.Context) {
	if s.reconciler == nil {
		return
	}
	report, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Reconciliation pass failed")
		return
	}
	evt := s.logger.Debug()
	if report.TalliesRepaired > 0 || report.MatchesFinalized > 0 || report.Errors > 0 {
		evt = s.logger.Info()
	}
	evt.Int("rooms", report.Rooms).
		Int("tallies_repaired", report.TalliesRepaired).
		Int("matches_finalized", report.MatchesFinalized).
		Int("errors", report.Errors).
		Msg("Reconciliation pass complete")
}

func (s *MaintenanceService) String() string {
	return s.name
}

// optionalTicker is a ticker whose channel never fires when the interval is
// not positive.
type optionalTicker struct {
	t *time.Ticker
	c <-chan time.Time
}

func tickerChan(interval time.Duration) optionalTicker {
	if interval <= 0 {
		return optionalTicker{}
	}
	t := time.NewTicker(interval)
	return optionalTicker{t: t, c: t.C}
}

func (o optionalTicker) stop() {
	if o.t != nil {
		o.t.Stop()
	}
}
