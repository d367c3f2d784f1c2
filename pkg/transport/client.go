package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-widgetflow/internal/telemetry"
)

const defaultWriteTimeout = 10 * time.Second

// ErrClientClosed is returned by writes after Close.
var ErrClientClosed = errors.New("transport: client closed")

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHandler sets the consumer of inbound messages.
func WithHandler(handler Handler) ClientOption {
	return func(c *Client) {
		c.handler = handler
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger telemetry.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWriteTimeout bounds each write when the context has no deadline.
func WithWriteTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.writeTimeout = timeout
		}
	}
}

// WithDialer overrides the websocket dialer used by Dial.
func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithHeader adds request headers to the websocket handshake.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		c.header = header
	}
}

// Client is a websocket Transport. Outbound responses are JSON envelopes;
// inbound envelopes are dispatched to the configured Handler by Run.
type Client struct {
	conn         *websocket.Conn
	dialer       *websocket.Dialer
	header       http.Header
	handler      Handler
	logger       telemetry.Logger
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  atomic.Bool
}

var _ Transport = (*Client)(nil)

func newClient(options ...ClientOption) *Client {
	c := &Client{
		dialer:       websocket.DefaultDialer,
		logger:       telemetry.NewNoopLogger(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Dial connects to a websocket endpoint.
func Dial(ctx context.Context, url string, options ...ClientOption) (*Client, error) {
	c := newClient(options...)
	conn, _, err := c.dialer.DialContext(ctx, url, c.header)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	c.conn = conn
	return c, nil
}

// NewClient wraps an established connection.
func NewClient(conn *websocket.Conn, options ...ClientOption) (*Client, error) {
	if conn == nil {
		return nil, fmt.Errorf("transport: connection is required")
	}
	c := newClient(options...)
	c.conn = conn
	return c, nil
}

// SetHandler replaces the inbound handler. It must be called before Run.
func (c *Client) SetHandler(handler Handler) {
	c.handler = handler
}

// SubmitWidgetResponse implements Transport.
func (c *Client) SubmitWidgetResponse(ctx context.Context, itemID, widgetID, widgetType string, response any) error {
	return c.write(ctx, Outbound{
		Type:       OutboundWidgetResponse,
		ItemID:     itemID,
		WidgetID:   widgetID,
		WidgetType: widgetType,
		Response:   response,
	})
}

// SubmitBatchResponse implements Transport.
func (c *Client) SubmitBatchResponse(ctx context.Context, itemID string, responses map[string]BatchEntry) error {
	if responses == nil {
		responses = map[string]BatchEntry{}
	}
	return c.write(ctx, Outbound{
		Type:      OutboundBatchResponse,
		ItemID:    itemID,
		Responses: responses,
	})
}

// SendMessage implements Transport.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.write(ctx, Outbound{Type: OutboundUserMessage, Text: text})
}

func (c *Client) write(ctx context.Context, msg Outbound) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.writeTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("transport: write %s: %w", msg.Type, err)
	}
	return nil
}

// Run reads inbound messages until the connection closes or ctx is done.
// render_widget payloads failing schema validation are dropped and logged;
// handler errors are logged and do not stop the loop.
func (c *Client) Run(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("transport: handler is required")
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || c.closed.Load() {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("transport: read: %w", err)
		}

		if msg.Type == InboundRenderWidget {
			if err := ValidateRenderPayload(msg.Payload); err != nil {
				c.logger.Warn(ctx, "render instruction rejected", "err", err)
				continue
			}
		}
		if err := c.handler.Handle(ctx, msg); err != nil {
			c.logger.Error(ctx, "inbound message failed", "type", msg.Type, "err", err)
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()
	return c.conn.Close()
}
