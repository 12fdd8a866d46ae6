package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/dailyshot/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The pool is pinned to one connection: every ":memory:" connection is a
// separate database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), sqlDB))
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SeedGame inserts a game and returns its id.
func SeedGame(t *testing.T, sqlDB *sql.DB, name, genre string, aliases ...string) int64 {
	t.Helper()

	res, err := sqlDB.Exec(
		`INSERT INTO games (name, release_year, publisher, developer, genre) VALUES (?, ?, ?, ?, ?)`,
		name, 2001, name+" Publishing", name+" Studio", genre)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	for _, alias := range aliases {
		_, err := sqlDB.Exec(`INSERT INTO game_aliases (game_id, alias) VALUES (?, ?)`, id, alias)
		require.NoError(t, err)
	}
	return id
}

// SeedScreenshot inserts an active screenshot for gameID and returns its id.
func SeedScreenshot(t *testing.T, sqlDB *sql.DB, gameID int64, quality int) int64 {
	t.Helper()

	var n int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM screenshots`).Scan(&n))
	res, err := sqlDB.Exec(
		`INSERT INTO screenshots (game_id, image_path, quality, is_active) VALUES (?, ?, ?, 1)`,
		gameID, fmt.Sprintf("shots/%d-%d.jpg", gameID, n+1), quality)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// SeedCatalog inserts n games with one screenshot each and returns the
// screenshot ids in insertion order.
func SeedCatalog(t *testing.T, sqlDB *sql.DB, n, quality int) []int64 {
	t.Helper()

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		gameID := SeedGame(t, sqlDB, fmt.Sprintf("Game %d", i+1), "RPG")
		ids = append(ids, SeedScreenshot(t, sqlDB, gameID, quality))
	}
	return ids
}
