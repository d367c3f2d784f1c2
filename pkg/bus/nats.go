package bus

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// Config holds connection settings for NATSBus.
type Config struct {
	// URL is the NATS server URL (e.g. "nats://localhost:4222").
	URL string
	// Name is a client identifier for monitoring.
	Name string
	// Timeout bounds the initial connection attempt.
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at a local NATS server.
func DefaultConfig() Config {
	return Config{
		URL:     nats.DefaultURL,
		Name:    "widgetflow",
		Timeout: 10 * time.Second,
	}
}

// NATSBus implements Bus on a NATS connection.
type NATSBus struct {
	conn   *nats.Conn
	closed atomic.Bool
}

// NewNATSBus connects to NATS using cfg.
func NewNATSBus(cfg Config) (*NATSBus, error) {
	defaults := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = defaults.URL
	}
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(cfg.Timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("bus: nats connect: %w", err)
	}
	return &NATSBus{conn: conn}, nil
}

// NewNATSBusFromConn wraps an existing connection.
func NewNATSBusFromConn(conn *nats.Conn) *NATSBus {
	return &NATSBus{conn: conn}
}

// Publish implements Publisher. The message id travels in the Nats-Msg-Id
// header.
func (b *NATSBus) Publish(ctx context.Context, subject string, data []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, ulid.Make().String())
	return b.conn.PublishMsg(msg)
}

// Subscribe implements Subscriber. The subscription is drained when ctx is
// cancelled.
func (b *NATSBus) Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if handler == nil {
		return nil, fmt.Errorf("bus: handler is required")
	}

	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		id := ""
		if msg.Header != nil {
			id = msg.Header.Get(nats.MsgIdHdr)
		}
		handler(&Message{
			ID:      id,
			Subject: msg.Subject,
			Data:    msg.Data,
			At:      time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bus: nats subscribe %q: %w", subject, err)
	}

	wrapped := &natsSubscription{sub: sub}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			_ = wrapped.Unsubscribe()
		}()
	}
	return wrapped, nil
}

// Close drains the connection.
func (b *NATSBus) Close() error {
	if b.closed.Swap(true) {
		return ErrClosed
	}
	return b.conn.Drain()
}

type natsSubscription struct {
	sub  *nats.Subscription
	done atomic.Bool
}

func (s *natsSubscription) Unsubscribe() error {
	if s.done.Swap(true) {
		return nil
	}
	return s.sub.Unsubscribe()
}

func (s *natsSubscription) Subject() string {
	return s.sub.Subject
}
