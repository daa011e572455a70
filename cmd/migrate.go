/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/recipebox/apiserver/internal/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsPath string
	migrateSteps   int
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(func(m *migrate.Migrate) error { return m.Up() })
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (one step by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return runMigration(func(m *migrate.Migrate) error { return m.Steps(-migrateSteps) })
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)

	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "internal/db/migrations", "Directory holding the migration files")
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "Number of migrations to roll back")
}

func runMigration(apply func(*migrate.Migrate) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	migrator, err := migrate.New("file://"+migrationsPath, db.DSN(cfg.Database))
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := apply(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("migrations already up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
