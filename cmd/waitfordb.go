/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"time"

	"github.com/recipebox/apiserver/internal/db"
	"github.com/spf13/cobra"
)

var (
	waitTimeout  time.Duration
	waitInterval time.Duration
)

// waitForDBCmd blocks until postgres accepts connections. Container
// entrypoints run it before migrate and server.
var waitForDBCmd = &cobra.Command{
	Use:   "wait-for-db",
	Short: "Wait until the database accepts connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), waitTimeout)
		defer cancel()
		return db.WaitForDB(ctx, cfg.Database, waitInterval, log)
	},
}

func init() {
	rootCmd.AddCommand(waitForDBCmd)

	waitForDBCmd.Flags().DurationVar(&waitTimeout, "timeout", 60*time.Second, "Give up after this long")
	waitForDBCmd.Flags().DurationVar(&waitInterval, "interval", time.Second, "Delay between attempts")
}
