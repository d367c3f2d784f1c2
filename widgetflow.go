// Package widgetflow wires the widget lifecycle engine, the streaming
// accumulator, a websocket transport and the terminal surface into a ready to
// run client.
package widgetflow

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-widgetflow/pkg/engine"
	"github.com/goliatone/go-widgetflow/pkg/session"
	"github.com/goliatone/go-widgetflow/pkg/surface/tui"
	"github.com/goliatone/go-widgetflow/pkg/transport"
)

// Instruction is the render_widget payload; alias exported via the root
// package for convenience.
type Instruction = engine.Instruction

// Response is a widget response.
type Response = engine.Response

// Submission describes a single-widget response handed to callbacks.
type Submission = engine.Submission

// Option configures a Terminal.
type Option func(*config)

type config struct {
	session []session.Option
	surface []tui.Option
	client  []transport.ClientOption
}

// WithSessionOptions forwards options to the session (and through it the
// engine).
func WithSessionOptions(options ...session.Option) Option {
	return func(c *config) {
		c.session = append(c.session, options...)
	}
}

// WithSurfaceOptions forwards options to the terminal surface.
func WithSurfaceOptions(options ...tui.Option) Option {
	return func(c *config) {
		c.surface = append(c.surface, options...)
	}
}

// WithClientOptions forwards options to the websocket client used by Connect.
func WithClientOptions(options ...transport.ClientOption) Option {
	return func(c *config) {
		c.client = append(c.client, options...)
	}
}

// Terminal is a conversation rendered in the terminal.
type Terminal struct {
	Session *session.Session
	Surface *tui.Surface
	Client  *transport.Client
}

// NewTerminal builds a terminal conversation on top of t. Inbound messages are
// fed through Terminal.Session.Handle by the caller.
func NewTerminal(t transport.Transport, options ...Option) (*Terminal, error) {
	cfg := newConfig(options)
	return newTerminal(t, cfg)
}

// Connect dials a websocket backend and builds a terminal conversation on it.
func Connect(ctx context.Context, url string, options ...Option) (*Terminal, error) {
	cfg := newConfig(options)
	client, err := transport.Dial(ctx, url, cfg.client...)
	if err != nil {
		return nil, err
	}
	term, err := newTerminal(client, cfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	client.SetHandler(term.Session)
	term.Client = client
	return term, nil
}

func newConfig(options []Option) *config {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	return cfg
}

func newTerminal(t transport.Transport, cfg *config) (*Terminal, error) {
	sf, err := tui.New(cfg.surface...)
	if err != nil {
		return nil, err
	}
	opts := append([]session.Option{session.WithStreamObserver(sf.StreamObserver())}, cfg.session...)
	sess, err := session.New(t, sf, opts...)
	if err != nil {
		return nil, fmt.Errorf("widgetflow: %w", err)
	}
	return &Terminal{Session: sess, Surface: sf}, nil
}

// Run drives the surface and, when connected, the client read loop until ctx
// is done, the backend hangs up, or either side fails. Aborting input ends Run
// without error.
func (t *Terminal) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if t.Client != nil {
		g.Go(func() error {
			defer cancel()
			return t.Client.Run(ctx)
		})
	}
	g.Go(func() error {
		err := t.Surface.Run(ctx, t.Session)
		if errors.Is(err, tui.ErrAborted) {
			if t.Client != nil {
				_ = t.Client.Close()
			}
			return nil
		}
		return err
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the client connection, if any.
func (t *Terminal) Close() error {
	if t.Client == nil {
		return nil
	}
	return t.Client.Close()
}
