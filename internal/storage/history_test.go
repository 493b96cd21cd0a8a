package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ihaboard/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSQLite_MigrateTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DialectSQLite, db.Dialect())
}

func TestOpen_UnsupportedDialect(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &DB{dialect: DialectSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestHistoryStore_RecordAndList(t *testing.T) {
	store := NewHistoryStore(newTestDB(t))
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	entries := []*domain.HistoryEntry{
		{Board: "danbooru", Tags: []string{"1girl", "solo"}, StatusCode: 200, TotalData: 10, CreatedAt: base},
		{Board: "safebooru", Tags: []string{"rating:safe"}, Random: true, StatusCode: 200, CreatedAt: base.Add(time.Minute)},
		{Board: "danbooru", Tags: nil, StatusCode: 500, Error: "", Origin: "schedule:daily", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(ctx, e))
		assert.NotEmpty(t, e.ID)
	}

	all, err := store.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, entries[2].ID, all[0].ID)
	assert.Equal(t, "schedule:daily", all[0].Origin)
	assert.Empty(t, all[0].Tags)
	assert.Equal(t, entries[0].ID, all[2].ID)
	assert.Equal(t, []string{"1girl", "solo"}, all[2].Tags)
	assert.Equal(t, base.UnixMilli(), all[2].CreatedAt.UnixMilli())

	dan, err := store.List(ctx, "danbooru", 10)
	require.NoError(t, err)
	assert.Len(t, dan, 2)

	safe, err := store.List(ctx, "safebooru", 10)
	require.NoError(t, err)
	require.Len(t, safe, 1)
	assert.True(t, safe[0].Random)

	limited, err := store.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHistoryStore_DefaultsCreatedAt(t *testing.T) {
	store := NewHistoryStore(newTestDB(t))
	e := &domain.HistoryEntry{Board: "zerochan"}
	require.NoError(t, store.Record(context.Background(), e))
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)
}
