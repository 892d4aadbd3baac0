// Package main provides the entry point for the quest engine admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"questengine/cmd/adm/commands"
	"questengine/internal/config"
	"questengine/internal/database"
	"questengine/internal/observability"
	"questengine/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Quiet logging and no OTLP exporters for the admin CLI
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "quest-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{"db_url": cfg.Database.URL})
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Warning: failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	userService := services.NewUserService(db, logger)
	generatorClient := services.NewHTTPGeneratorClient(cfg, logger)
	generatorService := services.NewQuestGeneratorService(generatorClient, cfg, logger)
	catalogService := services.NewQuestCatalogService(db, logger, generatorService)
	assignmentService := services.NewQuestAssignmentService(db, logger, catalogService, userService)
	streakService := services.NewStreakService(db, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Quest Engine Administration Tool",
		Long: `Quest Engine Administration Tool

A CLI tool for administering the quest engine.
Provides commands for user management, catalog generation and database operations.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.UserCommands(userService, logger))
	rootCmd.AddCommand(commands.QuestCommands(catalogService, assignmentService, userService, logger))
	rootCmd.AddCommand(commands.ActivityCommands(streakService, userService, logger))
	rootCmd.AddCommand(commands.DatabaseCommands(dbManager, logger, db, cfg.Database.URL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
