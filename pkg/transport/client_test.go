package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

// echoServer upgrades one connection, writes the scripted inbound frames and
// forwards every frame the client sends to received.
func echoServer(t *testing.T, script []string, received chan<- Outbound) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, frame := range script {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		for {
			var msg Outbound
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_WritesEnvelopes(t *testing.T) {
	received := make(chan Outbound, 4)
	srv := echoServer(t, nil, received)

	ctx := context.Background()
	client, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.SubmitWidgetResponse(ctx, "item-1", "w1", "slider", map[string]any{"value": 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := client.SubmitBatchResponse(ctx, "item-2", map[string]BatchEntry{"w2": {WidgetType: "text-input", Value: map[string]any{"text": "hi"}}}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if err := client.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("message: %v", err)
	}

	want := []Outbound{
		{Type: OutboundWidgetResponse, ItemID: "item-1", WidgetID: "w1", WidgetType: "slider", Response: map[string]any{"value": float64(3)}},
		{Type: OutboundBatchResponse, ItemID: "item-2", Responses: map[string]BatchEntry{"w2": {WidgetType: "text-input", Value: map[string]any{"text": "hi"}}}},
		{Type: OutboundUserMessage, Text: "hello"},
	}
	var got []Outbound
	for range want {
		select {
		case msg := <-received:
			got = append(got, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for frames, got %+v", got)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_RunDispatchesValidInbound(t *testing.T) {
	script := []string{
		`{"type":"render_widget","payload":{"widgetType":"slider","widgetId":"s1","itemId":"i1"}}`,
		`{"type":"render_widget","payload":{"widgetId":"missing-type"}}`,
		`{"type":"render_widget","payload":{"widgetType":"slider"}}`,
		`{"type":"stream_chunk","messageId":"m1","content":"Hel"}`,
		`{"type":"stream_end","messageId":"m1"}`,
	}
	srv := echoServer(t, script, make(chan Outbound, 1))

	var (
		mu  sync.Mutex
		got []Inbound
	)
	done := make(chan struct{})
	handler := HandlerFunc(func(_ context.Context, msg Inbound) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		if msg.Type == InboundStreamEnd {
			close(done)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, err := Dial(ctx, wsURL(srv), WithHandler(handler))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for stream_end")
	}
	cancel()
	select {
	case <-runErr:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	types := make([]string, 0, len(got))
	for _, msg := range got {
		types = append(types, msg.Type)
	}
	if diff := cmp.Diff([]string{InboundRenderWidget, InboundStreamChunk, InboundStreamEnd}, types); diff != "" {
		t.Fatalf("dispatched types mismatch (-want +got):\n%s", diff)
	}
	if got[1].Content == nil || *got[1].Content != "Hel" {
		t.Fatalf("unexpected chunk content %+v", got[1].Content)
	}
}

func TestClient_WriteAfterClose(t *testing.T) {
	srv := echoServer(t, nil, make(chan Outbound, 1))
	client, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := client.SendMessage(context.Background(), "late"); err != ErrClientClosed {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}

func TestValidateRenderPayload(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "widget id", payload: `{"widgetType":"rating","widgetId":"r"}`},
		{name: "content id fallback", payload: `{"widgetType":"rating","contentId":"c"}`},
		{name: "full", payload: `{"widgetType":"single-choice","widgetId":"q","itemId":"i","options":["a"],"required":true,"widgetConfig":{"min_value":1},"initialValue":{"selected":"a"}}`},
		{name: "missing type", payload: `{"widgetId":"r"}`, wantErr: true},
		{name: "missing ids", payload: `{"widgetType":"rating"}`, wantErr: true},
		{name: "empty id", payload: `{"widgetType":"rating","widgetId":""}`, wantErr: true},
		{name: "wrong flag type", payload: `{"widgetType":"rating","widgetId":"r","required":"yes"}`, wantErr: true},
		{name: "empty", payload: ``, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRenderPayload(json.RawMessage(tc.payload))
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
