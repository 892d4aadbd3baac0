//go:build integration

package services

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"questengine/internal/config"
	"questengine/internal/database"
	"questengine/internal/observability"

	"github.com/stretchr/testify/require"
)

// SharedTestDBSetup provides a clean, migrated database for each integration
// test. Requires TEST_DATABASE_URL.
func SharedTestDBSetup(t *testing.T) *sql.DB {
	observabilityLogger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	dbManager := database.NewManager(observabilityLogger)

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Fatal("TEST_DATABASE_URL environment variable must be set for integration tests")
	}

	db, err := dbManager.InitDB(databaseURL)
	require.NoError(t, err)

	CleanupTestDatabase(db, t)

	return db
}

// CleanupTestDatabase truncates all engine tables and reseeds the language
// list so each test starts from the same state.
func CleanupTestDatabase(db *sql.DB, t *testing.T) {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cleanupQueries := []string{
		"TRUNCATE TABLE user_daily_quests CASCADE",
		"TRUNCATE TABLE daily_quests CASCADE",
		"TRUNCATE TABLE users CASCADE",
		"TRUNCATE TABLE languages CASCADE",
		"ALTER SEQUENCE users_id_seq RESTART WITH 1",
		"ALTER SEQUENCE daily_quests_id_seq RESTART WITH 1",
		"ALTER SEQUENCE user_daily_quests_id_seq RESTART WITH 1",
		"ALTER SEQUENCE languages_id_seq RESTART WITH 1",
	}
	for _, query := range cleanupQueries {
		_, err = tx.ExecContext(ctx, query)
		require.NoError(t, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO languages (code, name)
		VALUES ('it', 'Italian'), ('fr', 'French')
		ON CONFLICT (code) DO NOTHING`)
	require.NoError(t, err)

	err = tx.Commit()
	require.NoError(t, err)
}
