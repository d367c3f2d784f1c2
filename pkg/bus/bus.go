// Package bus publishes widget lifecycle events to other application modules.
// MemoryBus serves a single process; NATSBus fans events out over NATS.
package bus

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when operating on a closed bus or subscription.
var ErrClosed = errors.New("bus: closed")

// Publisher sends a message to every subscriber of a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Subscriber registers handlers for subjects. Subjects are dot separated; "*"
// matches exactly one token and a trailing ">" matches one or more.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error)
}

// Bus is a Publisher and Subscriber that can be closed.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Handler processes one message.
type Handler func(msg *Message)

// Message is a delivered event.
type Message struct {
	ID      string
	Subject string
	Data    []byte
	At      time.Time
}

// Subscription represents an active subscription.
type Subscription interface {
	Unsubscribe() error
	Subject() string
}
