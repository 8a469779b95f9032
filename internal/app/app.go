// Package app wires pickpack's services together for both the terminal
// UI and the headless commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/billie-coop/pickpack/internal/catalog"
	"github.com/billie-coop/pickpack/internal/config"
	"github.com/billie-coop/pickpack/internal/coordinator"
	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/pkgmgr"
	"github.com/billie-coop/pickpack/internal/queue"
)

// App holds all the core services
type App struct {
	Config      *config.Manager
	Catalog     *catalog.Catalog
	Runner      *pkgmgr.Runner
	Coordinator *coordinator.Coordinator

	// Event system
	EventBroker *events.Broker

	logger zerolog.Logger
}

// New creates an app from loaded configuration. Nothing runs until Start.
func New(cfgMgr *config.Manager, logger zerolog.Logger) (*App, error) {
	cfg := cfgMgr.Get()

	cat, err := catalog.LoadOrDefault(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	broker := events.NewBroker()
	runner := pkgmgr.New(pkgmgr.Options{
		Tool:             cfg.Tool,
		RequireUserInput: cfg.Interactive,
		LockPath:         cfg.LockFile,
	}, logger.With().Str("component", "pkgmgr").Logger())

	app := &App{
		Config:      cfgMgr,
		Catalog:     cat,
		Runner:      runner,
		EventBroker: broker,
		logger:      logger,
	}
	app.Coordinator = coordinator.New(runner, broker,
		logger.With().Str("component", "coordinator").Logger(),
		queue.WithTimeout(cfg.Timeout),
		queue.WithLogger(logger.With().Str("component", "queue").Logger()),
	)
	return app, nil
}

// Start probes the package manager and starts the worker. With watch set,
// an external catalog file is watched for edits until ctx ends.
func (a *App) Start(ctx context.Context, watch bool) error {
	a.Runner.Detect(ctx)

	if err := a.Coordinator.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	if path := a.Config.Get().Catalog; watch && path != "" {
		w, err := catalog.NewWatcher(path, a.catalogReloaded, a.logger)
		if err != nil {
			// The loaded catalog still works without reloads.
			a.logger.Warn().Err(err).Msg("catalog reload disabled")
			return nil
		}
		w.OnError(a.catalogFailed)
		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("catalog watcher stopped")
			}
		}()
	}
	return nil
}

// Shutdown stops the worker after the running job and waits for it, or
// for ctx to end.
func (a *App) Shutdown(ctx context.Context) error {
	a.Coordinator.Shutdown()
	select {
	case <-a.Coordinator.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) catalogReloaded(cat *catalog.Catalog) {
	a.EventBroker.Publish(events.Event{
		Type:    events.CatalogReloadedEvent,
		Payload: events.CatalogPayload{Catalog: cat},
	})
}

func (a *App) catalogFailed(err error) {
	a.EventBroker.Publish(events.Event{
		Type:    events.CatalogErrorEvent,
		Payload: events.ErrorPayload{Err: err},
	})
}
