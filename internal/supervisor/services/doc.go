// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package services adapts Trinity components to suture's Serve pattern.

Each wrapper implements suture.Service and fmt.Stringer:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTPServerService:
  - Runs *http.Server.ListenAndServe in a goroutine
  - Calls Shutdown with a fresh deadline once ctx is canceled
  - A bind failure is returned so the supervisor restarts it with backoff

MaintenanceService:
  - Runs Badger value-log GC every GCInterval
  - Runs the tally reconciler every ReconcileInterval, and once at startup
  - Logs job failures and keeps ticking

events.Recorder already implements suture.Service and is added to the tree
directly.
*/
package services
