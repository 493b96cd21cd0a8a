package dbclient

import (
	"fmt"
	"strings"

	"ihaboard/internal/domain"
)

// buildPostgresDSN returns cfg.DSN or constructs a key=value connection string.
func buildPostgresDSN(cfg domain.StoreConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteDSNValue(cfg.Host), port, quoteDSNValue(cfg.Username), quoteDSNValue(cfg.Password),
		quoteDSNValue(cfg.Database), quoteDSNValue(sslMode),
	)
}

var dsnValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteDSNValue single-quotes v for a libpq keyword/value string.
func quoteDSNValue(v string) string {
	return "'" + dsnValueEscaper.Replace(v) + "'"
}
