package cli

import (
	"fmt"

	"github.com/harborline/docsift/internal/adapters/driven/config/file"
	"github.com/harborline/docsift/internal/adapters/driven/storage/memory"
	"github.com/harborline/docsift/internal/adapters/driven/storage/pgvector"
	"github.com/harborline/docsift/internal/adapters/driven/storage/sqlite"
	"github.com/harborline/docsift/internal/connectors/filesystem"
	"github.com/harborline/docsift/internal/connectors/sharepoint"
	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/core/ports/driving"
	"github.com/harborline/docsift/internal/core/services"
	"github.com/harborline/docsift/internal/extractors"
	"github.com/harborline/docsift/internal/logger"
	"github.com/harborline/docsift/internal/postprocessors"
)

// app bundles the wired pipeline and its resources for one command
// invocation.
type app struct {
	settings   domain.Settings
	source     driven.ContentSource
	stateStore driven.StateStore
	docStore   driven.DocumentStore
	pipeline   driving.Pipeline

	closers []func() error
}

// buildApp loads configuration and wires the pipeline. Tests replace
// this to inject mocks.
var buildApp = newApp

// newApp constructs the application from the config file, applying
// the optional override to settings before any wiring happens.
func newApp(override func(*domain.Settings)) (*app, error) {
	store, err := file.NewSettingsStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if override != nil {
		override(&settings)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config (%s): %w", store.Path(), err)
	}

	a := &app{settings: settings}

	if err := a.buildStores(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.buildSource(); err != nil {
		a.Close()
		return nil, err
	}

	loader := services.NewBatchLoader(a.docStore, a.settings.Sync.BatchSize, a.settings.Sync.InsertTimeout)
	a.pipeline = services.NewPipeline(
		a.source,
		extractors.NewDefaultRegistry(),
		postprocessors.NewDefaultPipeline(a.settings.Sync),
		loader,
		a.stateStore,
		a.settings,
	)

	return a, nil
}

// buildStores selects the storage backend. The pgvector backend keeps
// pipeline state in the local SQLite database; only documents go to
// Postgres.
func (a *app) buildStores() error {
	switch a.settings.Store.Type {
	case "sqlite":
		store, err := sqlite.NewStore(a.settings.Store.DataDir)
		if err != nil {
			return fmt.Errorf("opening sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.stateStore = store.StateStore()
		a.docStore = store.DocumentStore()

	case "pgvector":
		store, err := sqlite.NewStore(a.settings.Store.DataDir)
		if err != nil {
			return fmt.Errorf("opening sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.stateStore = store.StateStore()

		docs, err := pgvector.NewDocStore(a.settings.Store.PostgresDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, docs.Close)
		a.docStore = docs

	case "memory":
		a.stateStore = memory.NewStateStore()
		a.docStore = memory.NewDocStore()

	default:
		return fmt.Errorf("%w: unknown store type %q", domain.ErrInvalidInput, a.settings.Store.Type)
	}
	return nil
}

// buildSource selects the content source.
func (a *app) buildSource() error {
	switch a.settings.Source.Type {
	case "filesystem":
		a.source = filesystem.New(a.settings.Source.Path)
		// The root is baked into the source; the fetch path hint is
		// for subfolders of a remote drive only.
		a.settings.Source.Path = ""
	case "sharepoint":
		a.source = sharepoint.New(a.settings.Source.SharePoint)
	default:
		return fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, a.settings.Source.Type)
	}
	a.closers = append(a.closers, a.source.Close)
	return nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("closing resource: %v", err)
		}
	}
}
