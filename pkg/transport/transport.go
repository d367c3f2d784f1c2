// Package transport defines how collected widget responses leave the process
// and how server instructions arrive. The engine only depends on Transport;
// Client is a websocket implementation of both directions.
package transport

import (
	"context"
	"encoding/json"
)

// BatchEntry is one widget's contribution to a batch submission.
type BatchEntry struct {
	WidgetType string `json:"widgetType"`
	Value      any    `json:"value"`
}

// Transport sends responses to the server.
type Transport interface {
	SubmitWidgetResponse(ctx context.Context, itemID, widgetID, widgetType string, response any) error
	SubmitBatchResponse(ctx context.Context, itemID string, responses map[string]BatchEntry) error
	SendMessage(ctx context.Context, text string) error
}

// Inbound message types delivered to a Handler.
const (
	InboundRenderWidget   = "render_widget"
	InboundStreamChunk    = "stream_chunk"
	InboundStreamToolCall = "stream_tool_call"
	InboundStreamEnd      = "stream_end"
	InboundClear          = "clear"
)

// Outbound message types written by Client.
const (
	OutboundWidgetResponse = "widget_response"
	OutboundBatchResponse  = "batch_response"
	OutboundUserMessage    = "user_message"
)

// Inbound is one server message. Payload carries the render instruction or
// tool call; Content carries streamed text.
type Inbound struct {
	Type      string          `json:"type"`
	MessageID string          `json:"messageId,omitempty"`
	Content   *string         `json:"content,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Handler consumes inbound messages.
type Handler interface {
	Handle(ctx context.Context, msg Inbound) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, Inbound) error

// Handle implements Handler.
func (fn HandlerFunc) Handle(ctx context.Context, msg Inbound) error {
	return fn(ctx, msg)
}

// Outbound is the envelope Client writes.
type Outbound struct {
	Type       string                `json:"type"`
	ItemID     string                `json:"itemId,omitempty"`
	WidgetID   string                `json:"widgetId,omitempty"`
	WidgetType string                `json:"widgetType,omitempty"`
	Response   any                   `json:"response,omitempty"`
	Responses  map[string]BatchEntry `json:"responses,omitempty"`
	Text       string                `json:"text,omitempty"`
}
