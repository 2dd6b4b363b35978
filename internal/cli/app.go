// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for CLI command handlers.
//
// Every handler builds one App: config, API client, keystore-backed
// session, and the optional chat cache. Handlers that talk to the backend
// call RequireAuth first so the stored session is restored exactly once.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/config"
	"github.com/docuflow/docuflow-cli/internal/keystore"
	"github.com/docuflow/docuflow-cli/internal/session"
	"github.com/docuflow/docuflow-cli/internal/storage"
)

// ErrNoLocation is returned by commands that need a location scope when
// neither --location nor the configured default is set.
var ErrNoLocation = errors.New("no location configured; set one with: docuflow config set location_id <id>")

// App bundles the long-lived pieces a command handler needs.
type App struct {
	Config  *config.Config
	Client  *api.Client
	Session *session.Manager

	// Cache is nil when disabled or unopenable; commands fall back to
	// network-only behavior.
	Cache *storage.Cache

	verbose bool
}

// NewApp wires config, API client, keystore, session, and cache.
func NewApp(args Args) (*App, error) {
	cfg := config.Global()

	client := api.New(cfg.API.BaseURL).
		WithTimeout(cfg.Timeout()).
		WithUploadTimeout(cfg.UploadTimeout()).
		WithRetryPolicy(cfg.API.MaxRetries, cfg.RetryBase()).
		WithRateLimit(cfg.API.RequestsPerSec)

	logf := func(string, ...any) {}
	if args.Verbose {
		logf = func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, "debug: "+format+"\n", a...)
		}
		client = client.WithLogger(logf)
	}

	store, err := keystore.NewDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	sess := session.NewManager(client, store).WithLogger(logf)

	app := &App{
		Config:  cfg,
		Client:  client,
		Session: sess,
		verbose: args.Verbose,
	}

	if cfg.Cache.Enabled {
		path, err := cfg.CachePath()
		if err == nil {
			if cache, err := storage.Open(path); err == nil {
				app.Cache = cache
			} else {
				logf("cache unavailable: %v", err)
			}
		}
	}

	return app, nil
}

// Close releases the cache handle.
func (a *App) Close() {
	if a.Cache != nil {
		a.Cache.Close()
	}
}

// Context returns a request context bounded by the standard timeout.
func (a *App) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.Config.Timeout())
}

// RequireAuth restores the stored session and fails when nobody is
// logged in. Offline restore errors keep the stored token, so cached
// reads still work.
func (a *App) RequireAuth(ctx context.Context) error {
	if err := a.Session.Restore(ctx); err != nil {
		return err
	}
	if !a.Session.IsAuthenticated() {
		return fmt.Errorf("not logged in; run: docuflow login")
	}
	return nil
}

// LocationID resolves the location scope for folder/document commands:
// the --location flag wins, then the configured default.
func (a *App) LocationID(parser *ArgParser) (string, error) {
	if id := parser.Flag("location"); id != "" {
		return id, nil
	}
	if a.Config.LocationID != "" {
		return a.Config.LocationID, nil
	}
	return "", ErrNoLocation
}

// background returns a context for long-running interactive work
// (REPL streams, sync watch) that should only end on interrupt.
func background() context.Context {
	return context.Background()
}

// withTimeout mirrors App.Context for helpers that only have a duration.
func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
