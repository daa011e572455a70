/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"time"

	"github.com/recipebox/apiserver/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shutdownTimeout time.Duration

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the recipe API server",
	Long: `Starts the recipe API server. Usage:

	recipebox server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		srv, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("failed to start server", zap.Error(err))
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Error("server error", zap.Error(err))
			}
			return err
		case <-cmd.Context().Done():
		}

		log.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			return err
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "Time allowed for in-flight requests on shutdown")
}
