/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/recipebox/apiserver/internal/db"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	superuserEmail    string
	superuserPassword string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "Create an active staff superuser",
	RunE: func(cmd *cobra.Command, args []string) error {
		if superuserEmail == "" || superuserPassword == "" {
			return errors.New("--email and --password are required")
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		users := services.NewUserService(store.NewRepositories(conn).Users, validation.New())
		user, err := users.CreateSuperuser(cmd.Context(), superuserEmail, superuserPassword)
		if err != nil {
			return err
		}
		log.Info("superuser created", zap.Int("user_id", user.ID), zap.String("email", user.Email))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createSuperuserCmd)

	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "Superuser email")
	createSuperuserCmd.Flags().StringVar(&superuserPassword, "password", "", "Superuser password")
}
