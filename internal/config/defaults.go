package config

import (
	"github.com/spf13/viper"

	"ihaboard/internal/imageboard"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:6969")

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("http.user_agent", imageboard.DefaultUserAgent)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_body_bytes", imageboard.DefaultMaxBodyBytes)

	v.SetDefault("boards.limit", 10)
	v.SetDefault("boards.danbooru_url", "") // board default
	v.SetDefault("boards.zerochan_url", "")

	v.SetDefault("mapping.file", "") // built-in mappings only
	v.SetDefault("mapping.watch", false)

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "~/.local/share/ihaboard/history.db")
	v.SetDefault("history.database", "ihaboard") // mongodb only
	v.SetDefault("history.host", "")
	v.SetDefault("history.port", 0)
	v.SetDefault("history.username", "")
	v.SetDefault("history.password", "")
	v.SetDefault("history.password_key", "") // keychain account
	v.SetDefault("history.ssl_mode", "")
}
