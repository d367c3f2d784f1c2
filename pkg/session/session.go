// Package session binds one widget engine and one streaming accumulator to a
// conversation. It consumes inbound transport messages and surface events and
// owns conversation switching.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-widgetflow/internal/telemetry"
	"github.com/goliatone/go-widgetflow/pkg/engine"
	"github.com/goliatone/go-widgetflow/pkg/streaming"
	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/transport"
)

// ErrUnknownMessage is returned by Handle for unsupported inbound types.
var ErrUnknownMessage = errors.New("session: unknown message type")

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the diagnostics logger. It is also handed to the engine
// unless engine options override it.
func WithLogger(logger telemetry.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngineOptions forwards options to the engine constructor.
func WithEngineOptions(options ...engine.Option) Option {
	return func(s *Session) {
		s.engineOptions = append(s.engineOptions, options...)
	}
}

// WithStreamObserver receives every streaming turn change.
func WithStreamObserver(observer streaming.Observer) Option {
	return func(s *Session) {
		s.observer = observer
	}
}

// Session is one conversation.
type Session struct {
	engine *engine.Engine
	stream *streaming.Accumulator
	logger telemetry.Logger

	engineOptions []engine.Option
	observer      streaming.Observer
}

var (
	_ transport.Handler = (*Session)(nil)
	_ surface.Sink      = (*Session)(nil)
)

// New creates a session rendering on s and responding through t.
func New(t transport.Transport, s surface.Surface, options ...Option) (*Session, error) {
	sess := &Session{logger: telemetry.NewNoopLogger()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(sess)
	}

	engineOptions := append([]engine.Option{engine.WithLogger(sess.logger)}, sess.engineOptions...)
	eng, err := engine.New(t, s, engineOptions...)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	sess.engine = eng

	var streamOptions []streaming.Option
	if sess.observer != nil {
		streamOptions = append(streamOptions, streaming.WithObserver(sess.observer))
	}
	sess.stream = streaming.New(streamOptions...)
	return sess, nil
}

// Engine returns the widget engine.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Stream returns the streaming accumulator.
func (s *Session) Stream() *streaming.Accumulator {
	return s.stream
}

// Handle implements transport.Handler.
func (s *Session) Handle(ctx context.Context, msg transport.Inbound) error {
	switch msg.Type {
	case transport.InboundRenderWidget:
		in, err := engine.DecodeInstruction(msg.Payload)
		if err != nil {
			return fmt.Errorf("session: decode render instruction: %w", err)
		}
		if err := s.engine.RenderWidget(ctx, in); err != nil {
			return fmt.Errorf("session: render widget: %w", err)
		}
	case transport.InboundStreamChunk:
		chunk := ""
		if msg.Content != nil {
			chunk = *msg.Content
		}
		s.stream.Append(msg.MessageID, chunk)
	case transport.InboundStreamToolCall:
		var call streaming.ToolCall
		if err := json.Unmarshal(msg.Payload, &call); err != nil {
			return fmt.Errorf("session: decode tool call: %w", err)
		}
		s.stream.AppendToolCall(msg.MessageID, call)
	case transport.InboundStreamEnd:
		s.stream.Finalize(msg.MessageID, msg.Content)
	case transport.InboundClear:
		s.Switch(ctx)
	default:
		s.logger.Warn(ctx, "unknown inbound message", "type", msg.Type)
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return nil
}

// HandleEvent implements surface.Sink by forwarding to the engine.
func (s *Session) HandleEvent(ctx context.Context, ev surface.Event) {
	s.engine.HandleEvent(ctx, ev)
}

// Switch tears the conversation down: every widget is removed, pending
// responses and the open streaming turn are dropped. Nothing is sent.
func (s *Session) Switch(ctx context.Context) {
	s.engine.ClearAll(ctx)
	s.stream.Reset()
	s.logger.Info(ctx, "conversation switched")
}
