// Package testsupport holds fakes shared by the engine, session, and terminal
// surface tests: a recording transport, a recording surface, and scripted
// widget nodes whose capabilities are chosen per test.
package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-widgetflow/pkg/transport"
)

// CallKind names the transport operation a Call recorded.
type CallKind string

const (
	CallWidgetResponse CallKind = "widget_response"
	CallBatchResponse  CallKind = "batch_response"
	CallMessage        CallKind = "message"
)

// Call is one recorded transport invocation.
type Call struct {
	Kind       CallKind
	ItemID     string
	WidgetID   string
	WidgetType string
	Response   any
	Responses  map[string]transport.BatchEntry
	Text       string
}

// Transport records every call. Err, when set, is returned from every call
// after recording it.
type Transport struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

// NewTransport returns an empty recording transport.
func NewTransport() *Transport {
	return &Transport{}
}

var _ transport.Transport = (*Transport)(nil)

func (t *Transport) SubmitWidgetResponse(_ context.Context, itemID, widgetID, widgetType string, response any) error {
	return t.record(Call{Kind: CallWidgetResponse, ItemID: itemID, WidgetID: widgetID, WidgetType: widgetType, Response: response})
}

func (t *Transport) SubmitBatchResponse(_ context.Context, itemID string, responses map[string]transport.BatchEntry) error {
	return t.record(Call{Kind: CallBatchResponse, ItemID: itemID, Responses: responses})
}

func (t *Transport) SendMessage(_ context.Context, text string) error {
	return t.record(Call{Kind: CallMessage, Text: text})
}

func (t *Transport) record(call Call) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, call)
	return t.Err
}

// Calls returns every recorded call in order.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// CallsOf returns the recorded calls of one kind.
func (t *Transport) CallsOf(kind CallKind) []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Call
	for _, call := range t.calls {
		if call.Kind == kind {
			out = append(out, call)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}
