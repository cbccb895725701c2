// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package main is the entry point for the Trinity server.
//
// Trinity lets a small group swipe independently through a shared list of
// movies or shows until one title collects enough positive votes to become
// the room's match.
//
// # Startup Order
//
//  1. Configuration: defaults, config.yaml, environment (koanf v2)
//  2. Logging: zerolog, configured from the logging section
//  3. Store: BadgerDB, then the optional room seed file
//  4. Event bus: watermill over gochannel or NATS (optionally embedded)
//  5. Catalog client, supply cache with circuit breaker, sequencer, consensus engine
//  6. HTTP API: chi router with JWT or header authentication
//  7. Supervisor tree: maintenance, event recorder and HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the tree. The HTTP server drains for
// SUPERVISOR_SHUTDOWN_TIMEOUT, pending event publications are awaited, then
// the bus and the store are closed.
//
// # Example Usage
//
// Local development with a seeded room and header identities:
//
//	export TMDB_API_KEY=your-tmdb-key
//	export AUTH_MODE=header
//	export STORE_IN_MEMORY=true
//	export STORE_SEED_FILE=./rooms.yaml
//	./trinity
//
// Production with JWT and NATS:
//
//	export TMDB_API_KEY=your-tmdb-key
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export STORE_PATH=/data/trinity
//	export EVENTS_DRIVER=nats
//	export NATS_URL=nats://nats:4222
//	./trinity
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/trinity/internal/api"
	"github.com/tomtom215/trinity/internal/auth"
	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/events"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/sequencer"
	"github.com/tomtom215/trinity/internal/store"
	"github.com/tomtom215/trinity/internal/supervisor"
	"github.com/tomtom215/trinity/internal/supervisor/services"
	"github.com/tomtom215/trinity/internal/supply"
)

// drainTimeout bounds how long shutdown waits for in-flight event publications.
const drainTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("events_driver", cfg.Events.Driver).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting Trinity")

	st, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	if cfg.Store.SeedFile != "" {
		res, err := st.SeedFromFile(context.Background(), cfg.Store.SeedFile)
		if err != nil {
			_ = st.Close()
			logging.Fatal().Err(err).Str("path", cfg.Store.SeedFile).Msg("Failed to apply seed file")
		}
		logging.Info().
			Int("rooms_created", res.RoomsCreated).
			Int("rooms_skipped", res.RoomsSkipped).
			Int("members_created", res.MembersCreated).
			Msg("Seed file applied")
	}

	bus, err := events.NewBus(cfg.Events, events.NewZerologAdapter())
	if err != nil {
		_ = st.Close()
		logging.Fatal().Err(err).Msg("Failed to start event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	notifier := events.NewNotifier(bus.Publisher(), cfg.Events.TopicPrefix,
		events.WithQueueSize(int(cfg.Events.Buffer)))
	recorder := events.NewRecorder(bus.Subscriber(), st, cfg.Events.TopicPrefix)

	supplier := supply.New(st, catalog.NewClient(cfg.Catalog), cfg.Cache, cfg.Breaker,
		supply.WithObserver(notifier))
	seq := sequencer.New(st, supplier)
	engine := consensus.NewEngine(st, notifier)
	reconciler := consensus.NewReconciler(st, notifier)

	authenticator, err := auth.NewAuthenticator(cfg.Security)
	if err != nil {
		_ = bus.Close()
		_ = st.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}
	if cfg.Security.AuthMode == auth.ModeHeader {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: AUTH_MODE=header trusts the X-User-ID header")
		logging.Warn().Msg("  Any client can vote as any user. Use only for local development.")
		logging.Warn().Msg("============================================================")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(engine, seq, supplier, st, cfg.Store.ActivityLimit)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)), authenticator)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewMaintenanceService(st, reconciler, services.MaintenanceConfig{
		GCInterval:         cfg.Store.GCInterval,
		GCDiscardRatio:     cfg.Store.GCDiscard,
		ReconcileInterval:  cfg.Supervisor.ReconcileInterval,
		ReconcileOnStartup: true,
	}))
	tree.AddMessagingService(recorder)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := notifier.Wait(drainCtx); err != nil {
		logging.Warn().Err(err).Msg("Pending event publications abandoned")
	}
	notifier.Close()

	logging.Info().Msg("Trinity stopped")
}
