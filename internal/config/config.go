package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ihaboard/internal/domain"
	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
)

// Config is the full ihaboard configuration.
type Config struct {
	Server    ServerConfig         `mapstructure:"server"`
	Log       LogConfig            `mapstructure:"log"`
	HTTP      HTTPConfig           `mapstructure:"http"`
	Boards    BoardsConfig         `mapstructure:"boards"`
	Mapping   MappingConfig        `mapstructure:"mapping"`
	History   domain.StoreConfig   `mapstructure:"history"`
	Schedules []domain.SavedSearch `mapstructure:"schedules"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// HTTPConfig configures the upstream fetch client.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes"`
}

// BoardsConfig overrides per-board upstream settings.
// Empty URLs keep each board's default.
type BoardsConfig struct {
	Limit       int    `mapstructure:"limit"`
	DanbooruURL string `mapstructure:"danbooru_url"`
	ZerochanURL string `mapstructure:"zerochan_url"`
}

// MappingConfig points at an optional mapping file.
type MappingConfig struct {
	File  string `mapstructure:"file"`
	Watch bool   `mapstructure:"watch"`
}

// Load reads configuration from (lowest to highest precedence) defaults,
// the config file, .env and IHABOARD_* environment variables.
// An empty path searches ./ihaboard.yaml and ~/.config/ihaboard/.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ihaboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ihaboard"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "read config %s", v.ConfigFileUsed())
		}
	}

	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("IHABOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Boards.Limit <= 0 {
		return errors.Newf("boards.limit must be positive, got %d", c.Boards.Limit)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.Newf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.Newf("http.max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if !c.History.Driver.Valid() {
		return errors.WithHintf(
			errors.Newf("unknown history.driver %q", c.History.Driver),
			"use one of %v", domain.StoreDrivers)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}

// BoardOptions returns the options every board is opened with.
func (c *Config) BoardOptions() imageboard.Options {
	return imageboard.Options{
		Limit:        c.Boards.Limit,
		UserAgent:    c.HTTP.UserAgent,
		Timeout:      time.Duration(c.HTTP.TimeoutSeconds) * time.Second,
		MaxBodyBytes: c.HTTP.MaxBodyBytes,
	}
}

// BoardURL returns the configured upstream for board, or "" for its default.
func (c *Config) BoardURL(board string) string {
	switch board {
	case "danbooru", "safebooru":
		return c.Boards.DanbooruURL
	case "zerochan":
		return c.Boards.ZerochanURL
	default:
		return ""
	}
}
