package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeFinePaid = "fine.paid"
)

// Event is a domain event as written to the stream.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Key        string         `json:"-"`
	Data       map[string]any `json:"data"`
}

// Publisher delivers domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
