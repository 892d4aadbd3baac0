// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"fmt"

	"questengine/internal/observability"
	"questengine/internal/services"
	contextutils "questengine/internal/utils"

	"github.com/spf13/cobra"
)

// UserCommands returns the user management commands
func UserCommands(userService services.UserServiceInterface, logger *observability.Logger) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for the quest engine.

Available commands:
  create       - Create a new user
  show         - Show a user by username
  set-language - Set the learning language for a user`,
	}

	userCmd.AddCommand(createUserCmd(userService, logger))
	userCmd.AddCommand(showUserCmd(userService))
	userCmd.AddCommand(setLanguageCmd(userService, logger))

	return userCmd
}

func createUserCmd(userService services.UserServiceInterface, logger *observability.Logger) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "create [username]",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			user, err := userService.CreateUser(ctx, args[0], email)
			if err != nil {
				logger.Error(ctx, "Failed to create user", err, map[string]interface{}{"username": args[0]})
				return contextutils.WrapError(err, "failed to create user")
			}

			fmt.Printf("Created user %q with ID %d\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address for the new user")

	return cmd
}

func showUserCmd(userService services.UserServiceInterface) *cobra.Command {
	return &cobra.Command{
		Use:   "show [username]",
		Short: "Show a user by username",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			user, err := userService.GetUserByUsername(ctx, args[0])
			if err != nil {
				return contextutils.WrapError(err, "failed to get user")
			}

			email := "N/A"
			if user.Email.Valid {
				email = user.Email.String
			}
			lastActivity := "never"
			if user.LastActivityDate.Valid {
				lastActivity = user.LastActivityDate.Time.Format("2006-01-02")
			}

			fmt.Printf("ID:            %d\n", user.ID)
			fmt.Printf("Username:      %s\n", user.Username)
			fmt.Printf("Email:         %s\n", email)
			fmt.Printf("Total XP:      %d\n", user.TotalXP)
			fmt.Printf("Total gems:    %d\n", user.TotalGems)
			fmt.Printf("Streak:        %d (max %d)\n", user.CurrentStreak, user.MaxStreak)
			fmt.Printf("Last activity: %s\n", lastActivity)
			return nil
		},
	}
}

func setLanguageCmd(userService services.UserServiceInterface, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "set-language [username] [language-code]",
		Short: "Set the learning language for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			user, err := userService.GetUserByUsername(ctx, args[0])
			if err != nil {
				return contextutils.WrapError(err, "failed to get user")
			}

			if err := userService.SetUserLanguage(ctx, user.ID, args[1]); err != nil {
				logger.Error(ctx, "Failed to set user language", err, map[string]interface{}{
					"username":      args[0],
					"language_code": args[1],
				})
				return contextutils.WrapError(err, "failed to set user language")
			}

			fmt.Printf("Set language %q for user %q\n", args[1], args[0])
			return nil
		},
	}
}
