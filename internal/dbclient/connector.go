package dbclient

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"ihaboard/internal/domain"
	"ihaboard/internal/errors"
	"ihaboard/internal/logger"
	"ihaboard/internal/secret"
	"ihaboard/internal/storage"
)

// NewHistoryStore opens the history backend selected by cfg.Driver.
func NewHistoryStore(cfg domain.StoreConfig) (domain.HistoryStore, error) {
	logger.Logger.Debugw("Opening history store", "driver", cfg.Driver)

	switch cfg.Driver {
	case domain.StoreDriverSQLite, "":
		db, err := storage.OpenSQLite(expandHome(cfg.DSN))
		if err != nil {
			return nil, err
		}
		return storage.NewHistoryStore(db), nil
	case domain.StoreDriverMySQL:
		return openSQL(storage.DialectMySQL, buildMySQLDSN(cfg))
	case domain.StoreDriverPostgres:
		return openSQL(storage.DialectPostgres, buildPostgresDSN(cfg))
	case domain.StoreDriverMongoDB:
		return newMongoHistory(cfg)
	case domain.StoreDriverNone:
		return NoopHistory{}, nil
	default:
		return nil, errors.WithHintf(
			errors.Newf("unsupported history driver: %s", cfg.Driver),
			"use one of %v", domain.StoreDrivers)
	}
}

func openSQL(dialect storage.Dialect, dsn string) (domain.HistoryStore, error) {
	db, err := storage.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	return storage.NewHistoryStore(db), nil
}

// expandHome resolves a leading ~/ against the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// NoopHistory discards every entry.
type NoopHistory struct{}

func (NoopHistory) Record(context.Context, *domain.HistoryEntry) error { return nil }

func (NoopHistory) List(context.Context, string, int) ([]domain.HistoryEntry, error) {
	return nil, nil
}

func (NoopHistory) Close() error { return nil }

// ResolvePassword fills cfg.Password from secrets when only
// cfg.PasswordKey is set.
func ResolvePassword(cfg domain.StoreConfig, secrets secret.SecretStore) (domain.StoreConfig, error) {
	if cfg.Password != "" || cfg.PasswordKey == "" {
		return cfg, nil
	}
	if secrets == nil {
		return cfg, errors.Newf("history.password_key %q set but no secret store available", cfg.PasswordKey)
	}
	value, err := secrets.Get(cfg.PasswordKey)
	if err != nil {
		return cfg, errors.WithHintf(
			errors.Wrapf(err, "read history password %q", cfg.PasswordKey),
			"store it with: ihaboard secret set %s", cfg.PasswordKey)
	}
	cfg.Password = string(value)
	return cfg, nil
}
