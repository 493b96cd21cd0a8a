package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ihaboard/internal/errors"
)

// Dialect is the SQL flavour behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// DB wraps a database/sql connection and knows its dialect.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) the SQLite file at path.
func OpenSQLite(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "create db directory")
		}
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// SQLite only supports one writer: a single connection prevents SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	return finish(conn, DialectSQLite)
}

// Open opens a DB for dialect. For SQLite dsn is a file path.
func Open(dialect Dialect, dsn string) (*DB, error) {
	switch dialect {
	case DialectSQLite:
		return OpenSQLite(dsn)
	case DialectMySQL, DialectPostgres:
		conn, err := sql.Open(string(dialect), dsn)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", dialect)
		}
		return finish(conn, dialect)
	default:
		return nil, errors.Newf("unsupported dialect: %s", dialect)
	}
}

func finish(conn *sql.DB, dialect Dialect) (*DB, error) {
	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Dialect reports the SQL flavour.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites ? placeholders into $N for Postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) migrate(ctx context.Context) error {
	boolType := "BOOLEAN"
	if db.dialect == DialectSQLite {
		boolType = "INTEGER"
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS search_history (
			id VARCHAR(36) PRIMARY KEY,
			board VARCHAR(64) NOT NULL,
			tags TEXT NOT NULL,
			random ` + boolType + ` NOT NULL DEFAULT FALSE,
			origin VARCHAR(128) NOT NULL DEFAULT '',
			status_code INTEGER NOT NULL DEFAULT 0,
			total_data INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			error TEXT NOT NULL,
			created_at_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX idx_search_history_board ON search_history(board, created_at_ms)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			// CREATE INDEX has no IF NOT EXISTS on MySQL: a rerun reports a duplicate.
			if strings.HasPrefix(m, "CREATE INDEX") && isDuplicateIndex(err) {
				continue
			}
			return errors.Wrapf(err, "migration failed: %.40s", m)
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}
