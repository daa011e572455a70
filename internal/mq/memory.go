package mq

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned by a closed in-process broker.
var ErrClosed = errors.New("mq: broker closed")

// Memory is an in-process broker. Every subscriber of a channel receives
// every message published after it subscribed; there is no persistence.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan Message
	nextID int
	closed bool
	done   chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		subs: make(map[string]map[int]chan Message),
		done: make(chan struct{}),
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the message.
func (m *Memory) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if channel == "" {
		return "", errors.New("mq: channel is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	msg := Message{ID: uuid.NewString(), Data: append([]byte(nil), data...), Attributes: maps.Clone(attrs)}
	for _, ch := range m.subs[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return msg.ID, nil
}

// Subscribe blocks delivering messages to handler until ctx is done or the
// broker is closed.
func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if channel == "" {
		return errors.New("mq: channel is required")
	}
	ch := make(chan Message, 64)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	id := m.nextID
	m.nextID++
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[int]chan Message)
	}
	m.subs[channel][id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.subs[channel], id)
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		case msg := <-ch:
			_ = handler(ctx, msg)
		}
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
