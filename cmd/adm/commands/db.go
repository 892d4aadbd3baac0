package commands

import (
	"context"
	"database/sql"
	"fmt"

	"questengine/internal/database"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(dbManager *database.Manager, logger *observability.Logger, db *sql.DB, databaseURL string) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the quest engine.

Available commands:
  migrate - Run pending schema migrations
  stats   - Show database statistics`,
	}

	dbCmd.AddCommand(migrateCmd(dbManager, logger, databaseURL))
	dbCmd.AddCommand(statsCmd(logger, db))

	return dbCmd
}

func migrateCmd(dbManager *database.Manager, logger *observability.Logger, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending schema migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			logger.Info(ctx, "Running migrations", map[string]interface{}{"database_url": maskDatabaseURL(databaseURL)})

			if err := dbManager.RunMigrations(databaseURL); err != nil {
				logger.Error(ctx, "Migrations failed", err, nil)
				return contextutils.WrapError(err, "migrations failed")
			}

			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			logger.Info(ctx, "Showing database statistics", map[string]interface{}{"database": getDatabaseInfo(db)})

			stats := []struct {
				label string
				query string
			}{
				{"Users", "SELECT COUNT(*) FROM users"},
				{"Languages", "SELECT COUNT(*) FROM languages"},
				{"Quest definitions", "SELECT COUNT(*) FROM daily_quests"},
				{"User quest links", "SELECT COUNT(*) FROM user_daily_quests"},
				{"Completed links", "SELECT COUNT(*) FROM user_daily_quests WHERE is_completed = TRUE"},
			}

			for _, s := range stats {
				var count int
				if err := db.QueryRowContext(ctx, s.query).Scan(&count); err != nil {
					return contextutils.WrapError(err, "failed to get database statistics")
				}
				fmt.Printf("%-20s %d\n", s.label+":", count)
			}
			return nil
		},
	}
}
