// Package mq publishes and consumes recipe change events over a pluggable
// broker: RabbitMQ, Google Pub/Sub or an in-process fan-out.
package mq

import (
	"context"
	"fmt"

	"github.com/recipebox/apiserver/config"
	"go.uber.org/zap"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error rejects the delivery.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend and logs traffic at debug level.
type MQ struct {
	backend Backend
	name    string
	logger  *zap.Logger
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend, name string, logger *zap.Logger) *MQ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQ{backend: backend, name: name, logger: logger.With(zap.String("broker", name))}
}

// Open connects the backend selected by cfg. It returns nil when events
// are disabled.
func Open(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) (*MQ, error) {
	switch cfg.Backend {
	case "", config.EventsBackendNone:
		return nil, nil
	case config.EventsBackendMemory:
		return New(NewMemory(), cfg.Backend, logger), nil
	case config.EventsBackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return New(client, cfg.Backend, logger), nil
	case config.EventsBackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return New(client, cfg.Backend, logger), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Name is the configured backend name.
func (m *MQ) Name() string {
	return m.name
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	id, err := m.backend.Publish(ctx, channel, data, attrs)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	m.logger.Debug("message published", zap.String("channel", channel), zap.String("message_id", id))
	return id, nil
}

// Subscribe consumes messages from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	m.logger.Info("subscribing", zap.String("channel", channel))
	return m.backend.Subscribe(ctx, channel, func(ctx context.Context, msg Message) error {
		if err := handler(ctx, msg); err != nil {
			m.logger.Warn("message rejected",
				zap.String("channel", channel),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			return err
		}
		return nil
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
