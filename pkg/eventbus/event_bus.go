// Package eventbus provides the publish/subscribe layer that carries quality
// control events to downstream collaborators.
package eventbus

import (
	"context"

	"github.com/shipshapehq/shipshape/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventHandler func(ctx context.Context, event any) error

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventBus interface {
	EventPublisher

	Subscribe(ctx context.Context) error
	Handle(eventType events.EventType, handler EventHandler) error
	GenerateID() string
	Close() error
}
