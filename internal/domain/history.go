package domain

import (
	"context"
	"time"
)

// StoreDriver selects the backend that keeps search history.
type StoreDriver string

const (
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverMySQL    StoreDriver = "mysql"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMongoDB  StoreDriver = "mongodb"
	StoreDriverNone     StoreDriver = "none"
)

// StoreDrivers lists every supported driver.
var StoreDrivers = []StoreDriver{
	StoreDriverSQLite, StoreDriverMySQL, StoreDriverPostgres, StoreDriverMongoDB, StoreDriverNone,
}

// Valid reports whether d is a supported driver.
func (d StoreDriver) Valid() bool {
	for _, known := range StoreDrivers {
		if d == known {
			return true
		}
	}
	return false
}

// StoreConfig holds the connection settings for the history backend.
// DSN wins when set; otherwise one is built from the host fields.
// For sqlite DSN is the database file path.
type StoreConfig struct {
	Driver   StoreDriver `mapstructure:"driver" json:"driver"`
	DSN      string      `mapstructure:"dsn" json:"dsn"`
	Host     string      `mapstructure:"host" json:"host"`
	Port     int         `mapstructure:"port" json:"port"`
	Database string      `mapstructure:"database" json:"database"`
	Username string      `mapstructure:"username" json:"username"`
	Password string      `mapstructure:"password" json:"-"`
	SSLMode  string      `mapstructure:"ssl_mode" json:"sslMode"`
	// PasswordKey names a secret-store entry holding the password.
	// Used only when Password is empty.
	PasswordKey string `mapstructure:"password_key" json:"passwordKey"`
}

// HistoryEntry is one completed search call.
type HistoryEntry struct {
	ID         string    `json:"id" bson:"_id"`
	Board      string    `json:"board" bson:"board"`
	Tags       []string  `json:"tags" bson:"tags"`
	Random     bool      `json:"random" bson:"random"`
	Origin     string    `json:"origin" bson:"origin"` // "http" | "mcp" | "cli" | "schedule:<name>"
	StatusCode int       `json:"statusCode" bson:"status_code"`
	TotalData  int       `json:"totalData" bson:"total_data"`
	DurationMs int64     `json:"durationMs" bson:"duration_ms"`
	Error      string    `json:"error,omitempty" bson:"error"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

// HistoryStore persists search history.
type HistoryStore interface {
	Record(ctx context.Context, e *HistoryEntry) error
	// List returns the newest entries first. An empty board matches all.
	List(ctx context.Context, board string, limit int) ([]HistoryEntry, error)
	Close() error
}

// SavedSearch is a search run on a cron schedule.
type SavedSearch struct {
	Name     string   `mapstructure:"name" json:"name"`
	Board    string   `mapstructure:"board" json:"board"`
	Tags     []string `mapstructure:"tags" json:"tags"`
	Random   bool     `mapstructure:"random" json:"random"`
	Schedule string   `mapstructure:"schedule" json:"schedule"` // standard 5-field cron expression
}
