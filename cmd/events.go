/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/recipebox/apiserver/internal/mq"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchEventsCmd tails the recipe event channel and logs each event.
var watchEventsCmd = &cobra.Command{
	Use:   "watch-events",
	Short: "Log recipe change events from the configured broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		broker, err := mq.Open(cmd.Context(), cfg.Events, log)
		if err != nil {
			return err
		}
		if broker == nil {
			return fmt.Errorf("events are disabled; set EVENTS_BACKEND")
		}
		defer broker.Close()

		err = broker.Subscribe(cmd.Context(), cfg.Events.Channel, func(ctx context.Context, msg mq.Message) error {
			var event services.RecipeEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			log.Info("recipe event",
				zap.String("message_id", msg.ID),
				zap.String("type", event.Type),
				zap.Int("recipe_id", event.RecipeID),
				zap.Int("user_id", event.UserID),
				zap.Time("occurred_at", event.OccurredAt),
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchEventsCmd)
}
