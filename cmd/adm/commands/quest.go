package commands

import (
	"context"
	"fmt"

	"questengine/internal/observability"
	"questengine/internal/services"
	contextutils "questengine/internal/utils"

	"github.com/spf13/cobra"
)

// QuestCommands returns the quest catalog management commands
func QuestCommands(
	catalogService services.QuestCatalogServiceInterface,
	assignmentService services.QuestAssignmentServiceInterface,
	userService services.UserServiceInterface,
	logger *observability.Logger,
) *cobra.Command {
	questCmd := &cobra.Command{
		Use:   "quest",
		Short: "Quest catalog management commands",
		Long: `Quest catalog management commands for the quest engine.

Available commands:
  ensure-catalog - Generate the quest catalog for a day if it is missing
  show-catalog   - Show the quest catalog for a day
  assign         - Assign the day's quests to a user`,
	}

	questCmd.AddCommand(ensureCatalogCmd(catalogService, logger))
	questCmd.AddCommand(showCatalogCmd(catalogService))
	questCmd.AddCommand(assignQuestsCmd(assignmentService, userService, logger))

	return questCmd
}

func ensureCatalogCmd(catalogService services.QuestCatalogServiceInterface, logger *observability.Logger) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "ensure-catalog",
		Short: "Generate the quest catalog for a day if it is missing",
		Long:  `Generate any missing quest catalog entries for a day. Pre-warming the catalog avoids generation latency on the first user request of the day.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			day, err := contextutils.ParseDate(dateStr)
			if err != nil {
				return contextutils.WrapError(err, "invalid date")
			}

			definitions, err := catalogService.EnsureCatalogForDay(ctx, day)
			if err != nil {
				logger.Error(ctx, "Failed to ensure quest catalog", err, map[string]interface{}{
					"quest_date": day.Format("2006-01-02"),
				})
				return contextutils.WrapError(err, "failed to ensure quest catalog")
			}

			fmt.Printf("Catalog for %s has %d quests\n", day.Format("2006-01-02"), len(definitions))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Quest day in YYYY-MM-DD format (default: today)")

	return cmd
}

func assignQuestsCmd(
	assignmentService services.QuestAssignmentServiceInterface,
	userService services.UserServiceInterface,
	logger *observability.Logger,
) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "assign [username]",
		Short: "Assign the day's quests to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			day, err := contextutils.ParseDate(dateStr)
			if err != nil {
				return contextutils.WrapError(err, "invalid date")
			}

			user, err := userService.GetUserByUsername(ctx, args[0])
			if err != nil {
				return contextutils.WrapError(err, "failed to get user")
			}

			links, err := assignmentService.AssignForUser(ctx, user.ID, day)
			if err != nil {
				logger.Error(ctx, "Failed to assign quests", err, map[string]interface{}{
					"user_id":    user.ID,
					"quest_date": day.Format(contextutils.DateLayout),
				})
				return contextutils.WrapError(err, "failed to assign quests")
			}

			fmt.Printf("User %q has %d quests for %s\n", user.Username, len(links), day.Format(contextutils.DateLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Quest day in YYYY-MM-DD format (default: today)")

	return cmd
}

func showCatalogCmd(catalogService services.QuestCatalogServiceInterface) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "show-catalog",
		Short: "Show the quest catalog for a day",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			day, err := contextutils.ParseDate(dateStr)
			if err != nil {
				return contextutils.WrapError(err, "invalid date")
			}

			definitions, err := catalogService.GetCatalogForDay(ctx, day)
			if err != nil {
				return contextutils.WrapError(err, "failed to get quest catalog")
			}

			if len(definitions) == 0 {
				fmt.Printf("No quests in the catalog for %s\n", day.Format("2006-01-02"))
				return nil
			}

			fmt.Printf("%-5s %-20s %-30s %-6s %-6s %-6s %-10s\n", "ID", "Type", "Title", "Req", "XP", "Gems", "Generated")
			for _, def := range definitions {
				generated := "no"
				if def.IsGenerated {
					generated = "yes"
				}
				fmt.Printf("%-5d %-20s %-30s %-6d %-6d %-6d %-10s\n",
					def.ID, def.QuestType, def.Title, def.RequirementValue, def.XPReward, def.GemReward, generated)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Quest day in YYYY-MM-DD format (default: today)")

	return cmd
}
