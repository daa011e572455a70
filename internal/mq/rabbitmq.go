package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recipebox/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes to one fanout exchange per channel. Each
// subscriber binds its own queue, so every consumer sees every event.
type RabbitMQClient struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queueDurable    bool
	queueAutoDelete bool
	prefetchCount   int

	mu        sync.Mutex
	exchanges map[string]struct{}
}

// NewRabbitMQClient dials the broker described by cfg.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:            conn,
		channel:         ch,
		queueDurable:    cfg.QueueDurable,
		queueAutoDelete: cfg.QueueAutoDelete,
		prefetchCount:   cfg.PrefetchCount,
		exchanges:       make(map[string]struct{}),
	}, nil
}

// Publish sends data to the channel's exchange. The "type" attribute, when
// present, becomes the routing key and the AMQP message type.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}
	if err := r.declareExchange(channel); err != nil {
		return "", err
	}

	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}

	messageID := uuid.NewString()
	err := r.channel.PublishWithContext(ctx, channel, attrs["type"], false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: deliveryMode(r.queueDurable),
		MessageId:    messageID,
		Type:         attrs["type"],
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe binds a queue named after the channel to its exchange and
// consumes until ctx is done. Rejected messages are dropped.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}
	if err := r.declareExchange(channel); err != nil {
		return err
	}

	queue, err := r.channel.QueueDeclare(channel+".consumer", r.queueDurable, r.queueAutoDelete, false, false, nil)
	if err != nil {
		return err
	}
	if err := r.channel.QueueBind(queue.Name, "", channel, false, nil); err != nil {
		return err
	}

	consumerTag := fmt.Sprintf("recipebox-%s", uuid.NewString())
	deliveries, err := r.channel.Consume(queue.Name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, false)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the underlying channel and connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declareExchange(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exchanges[name]; ok {
		return nil
	}
	if err := r.channel.ExchangeDeclare(name, amqp.ExchangeFanout, r.queueDurable, false, false, false, nil); err != nil {
		return err
	}
	r.exchanges[name] = struct{}{}
	return nil
}

func deliveryMode(durable bool) uint8 {
	if durable {
		return amqp.Persistent
	}
	return amqp.Transient
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
