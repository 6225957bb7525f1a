/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/msb-blog/apiserver/config"
	"github.com/msb-blog/apiserver/internal/db"
	"github.com/msb-blog/apiserver/internal/services"
	"github.com/msb-blog/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// createUserCmd is the administrative provisioning path: it is the only
// way to create an account without an existing session.
var createUserCmd = &cobra.Command{
	Use:   "createuser <email> <handle> <password>",
	Short: "Provision a user account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		database, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer func() {
			_ = database.Client().Disconnect(cmd.Context())
		}()

		userService := services.NewUserService(store.NewUserRepository(database))
		email, handle, password := args[0], args[1], args[2]
		if err := userService.Provision(cmd.Context(), email, handle, password); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("user %s already exists", email)
			}
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Fprintf(os.Stdout, "created user %s (%s)\n", email, handle)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)
}
