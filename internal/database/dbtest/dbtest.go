// Package dbtest provides migrated throwaway databases for package tests.
package dbtest

import (
	"testing"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// New returns a fresh in-memory SQLite database with all migrations applied.
// The database is closed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.NewSQLite(database.SQLiteMemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}
