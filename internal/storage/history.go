package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"ihaboard/internal/domain"
	"ihaboard/internal/errors"
)

// HistoryStore implements domain.HistoryStore on a SQL database.
type HistoryStore struct {
	db *DB
}

var _ domain.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Record(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO search_history (id, board, tags, random, origin, status_code,
		 total_data, duration_ms, error, created_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Board, strings.Join(e.Tags, " "), e.Random, e.Origin, e.StatusCode,
		e.TotalData, e.DurationMs, e.Error, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return errors.Wrap(err, "insert history entry")
	}
	return nil
}

func (s *HistoryStore) List(ctx context.Context, board string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, board, tags, random, origin, status_code, total_data,
		 duration_ms, error, created_at_ms FROM search_history`
	args := []any{}
	if board != "" {
		query += ` WHERE board = ?`
		args = append(args, board)
	}
	query += ` ORDER BY created_at_ms DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *HistoryStore) Close() error { return s.db.Close() }

func scanEntry(rows *sql.Rows) (domain.HistoryEntry, error) {
	var (
		e         domain.HistoryEntry
		tags      string
		createdAt int64
	)
	err := rows.Scan(&e.ID, &e.Board, &tags, &e.Random, &e.Origin, &e.StatusCode,
		&e.TotalData, &e.DurationMs, &e.Error, &createdAt)
	if err != nil {
		return e, errors.Wrap(err, "scan history entry")
	}
	e.Tags = strings.Fields(tags)
	e.CreatedAt = time.UnixMilli(createdAt)
	return e, nil
}
