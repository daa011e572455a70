package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/recipebox/apiserver/types"
	"go.uber.org/zap"
)

const (
	EventRecipeCreated = "recipe.created"
	EventRecipeUpdated = "recipe.updated"
	EventRecipeDeleted = "recipe.deleted"
)

// Publisher sends a message to a named channel. *mq.MQ satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// RecipeEvent is published after a recipe change commits.
type RecipeEvent struct {
	Type       string    `json:"type"`
	RecipeID   int       `json:"recipe_id"`
	UserID     int       `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type eventPublisher struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// WithEvents publishes recipe events to channel after every committed change.
func WithEvents(publisher Publisher, channel string) RecipeOption {
	return func(s *RecipeService) {
		if publisher == nil {
			return
		}
		s.events = &eventPublisher{publisher: publisher, channel: channel, logger: s.logger}
	}
}

// publish never fails the caller; delivery problems are logged.
func (p *eventPublisher) publish(ctx context.Context, eventType string, recipe types.Recipe) {
	if p == nil {
		return
	}
	data, err := json.Marshal(RecipeEvent{
		Type:       eventType,
		RecipeID:   recipe.ID,
		UserID:     recipe.UserID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error("encode recipe event", zap.Error(err))
		return
	}
	id, err := p.publisher.Publish(ctx, p.channel, data, map[string]string{"type": eventType})
	if err != nil {
		p.logger.Warn("publish recipe event failed",
			zap.String("type", eventType),
			zap.Int("recipe_id", recipe.ID),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("published recipe event", zap.String("type", eventType), zap.String("message_id", id))
}
