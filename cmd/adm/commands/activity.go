package commands

import (
	"context"
	"fmt"

	"questengine/internal/observability"
	"questengine/internal/services"
	contextutils "questengine/internal/utils"

	"github.com/spf13/cobra"
)

// ActivityCommands returns the streak activity management commands
func ActivityCommands(
	streakService services.StreakServiceInterface,
	userService services.UserServiceInterface,
	logger *observability.Logger,
) *cobra.Command {
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Streak activity management commands",
		Long: `Streak activity management commands for the quest engine.

Available commands:
  record - Record a learning activity for a user and update their streak`,
	}

	activityCmd.AddCommand(recordActivityCmd(streakService, userService, logger))

	return activityCmd
}

func recordActivityCmd(
	streakService services.StreakServiceInterface,
	userService services.UserServiceInterface,
	logger *observability.Logger,
) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "record [username]",
		Short: "Record a learning activity for a user",
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

			result, err := streakService.RecordActivity(ctx, user.ID, day)
			if err != nil {
				logger.Error(ctx, "Failed to record activity", err, map[string]interface{}{
					"user_id":      user.ID,
					"activity_day": day.Format(contextutils.DateLayout),
				})
				return contextutils.WrapError(err, "failed to record activity")
			}

			fmt.Printf("User %q\n", user.Username)
			fmt.Printf("  Current streak: %d\n", result.CurrentStreak)
			fmt.Printf("  Learned today:  %t\n", result.LearnedToday)
			if result.Reward != nil {
				fmt.Printf("  Reward:         %d gems (%s)\n", result.Reward.Amount, result.Reward.Type)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Activity day in YYYY-MM-DD format (default: today)")

	return cmd
}
