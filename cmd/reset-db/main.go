// Package main provides a small CLI utility to reset the quest engine
// database to a clean state. It is intended for local development and
// testing only and will permanently delete all data when run.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"questengine/internal/config"
	"questengine/internal/database"
	"questengine/internal/observability"
)

func fatalIfErr(ctx context.Context, logger *observability.Logger, msg string, err error, fields map[string]interface{}) {
	logger.Error(ctx, msg, err, fields)
	os.Exit(1)
}

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "reset-db")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("DATABASE RESET UTILITY")
	fmt.Println("======================")
	fmt.Println("This will PERMANENTLY DELETE ALL DATA in the database!")
	fmt.Println("This includes:")
	fmt.Println("- All users and their streaks")
	fmt.Println("- All quest definitions")
	fmt.Println("- All user quest assignments and progress")
	fmt.Println()
	fmt.Printf("Database: %s\n", cfg.Database.URL)
	fmt.Println()
	fmt.Print("Type 'yes' to continue: ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to read confirmation", err, nil)
	}
	if strings.TrimSpace(answer) != "yes" {
		fmt.Println("Aborted")
		return
	}

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to connect to database", err, map[string]interface{}{"db_url": cfg.Database.URL})
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	logger.Info(ctx, "Dropping quest engine tables", nil)

	drops := []string{
		"DROP TABLE IF EXISTS user_daily_quests CASCADE",
		"DROP TABLE IF EXISTS daily_quests CASCADE",
		"DROP TABLE IF EXISTS users CASCADE",
		"DROP TABLE IF EXISTS languages CASCADE",
		"DROP TABLE IF EXISTS schema_migrations CASCADE",
	}
	for _, stmt := range drops {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			fatalIfErr(ctx, logger, "Failed to drop table", err, map[string]interface{}{"statement": stmt})
		}
	}

	logger.Info(ctx, "Re-running migrations", nil)
	if err := dbManager.RunMigrations(cfg.Database.URL); err != nil {
		fatalIfErr(ctx, logger, "Failed to run migrations", err, nil)
	}

	fmt.Println("Database reset complete")
}
