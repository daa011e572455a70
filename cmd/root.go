/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/recipebox/apiserver/config"
	"github.com/recipebox/apiserver/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "recipebox"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recipebox",
	Short: "Recipe API server and operational tooling",
	Long: `recipebox serves the recipe API and ships the commands needed to run it:

	recipebox server
	recipebox migrate up
	recipebox wait-for-db
	recipebox create-superuser --email admin@example.com --password ...
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by every command.
func setup() (config.Config, *zap.Logger, error) {
	cfg := config.LoadConfig()
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
