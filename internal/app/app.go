package app

import (
	"context"

	"ihaboard/internal/config"
	"ihaboard/internal/dbclient"
	"ihaboard/internal/domain"
	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
	_ "ihaboard/internal/imageboard/boards"
	"ihaboard/internal/logger"
	"ihaboard/internal/secret"
	"ihaboard/internal/service"
)

// App wires configuration, history storage and the search service
// together. The HTTP server, the MCP server and the CLI all run on it.
type App struct {
	cfg     *config.Config
	emitter service.EventEmitter
	secrets secret.SecretStore

	history domain.HistoryStore
	search  *service.SearchService
}

// New creates a new App. emitter may be nil.
func New(cfg *config.Config, emitter service.EventEmitter) *App {
	return &App{cfg: cfg, emitter: emitter, secrets: secret.NewKeychainStore()}
}

// SetSecretStore replaces the keychain used for history.password_key.
func (a *App) SetSecretStore(s secret.SecretStore) {
	a.secrets = s
}

// Startup opens the history store and prepares the search service.
// A configured mapping file is loaded, and watched when mapping.watch is set.
func (a *App) Startup(ctx context.Context) error {
	storeCfg, err := dbclient.ResolvePassword(a.cfg.History, a.secrets)
	if err != nil {
		return err
	}
	history, err := dbclient.NewHistoryStore(storeCfg)
	if err != nil {
		return errors.Wrap(err, "open history store")
	}
	a.history = history

	a.search = service.NewSearchService(history, a.emitter, a.cfg.BoardOptions())
	for _, name := range imageboard.Names() {
		a.search.SetBaseURL(name, a.cfg.BoardURL(name))
	}

	if path := a.cfg.Mapping.File; path != "" {
		if err := a.search.ReloadMappings(path); err != nil {
			a.Shutdown(ctx)
			return errors.Wrap(err, "load mapping file")
		}
		if a.cfg.Mapping.Watch {
			if err := a.search.WatchMappings(ctx, path); err != nil {
				logger.Logger.Warnw("Mapping hot reload disabled", "path", path, "error", err)
			}
		}
	}
	return nil
}

// StartSchedules starts the configured saved searches. Invalid entries
// are logged and skipped.
func (a *App) StartSchedules(ctx context.Context) {
	if err := a.search.StartSchedules(ctx, a.cfg.Schedules); err != nil {
		logger.Logger.Warnw("Some saved searches were not scheduled", "error", err)
	}
}

// Search returns the search service. Valid after Startup.
func (a *App) Search() *service.SearchService {
	return a.search
}

// Shutdown stops background work, waits for running saved searches and
// closes the history store.
func (a *App) Shutdown(ctx context.Context) {
	if a.search != nil {
		a.search.Stop()
		a.search.WaitRunning(ctx)
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Logger.Warnw("Failed to close history store", "error", err)
		}
		a.history = nil
	}
}

// Boards lists the registered boards. Does not need Startup.
func (a *App) Boards() []imageboard.Info {
	return imageboard.List()
}
