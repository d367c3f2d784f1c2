package widgetflow_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	widgetflow "github.com/goliatone/go-widgetflow"
	"github.com/goliatone/go-widgetflow/pkg/surface/tui"
	"github.com/goliatone/go-widgetflow/pkg/testsupport"
	"github.com/goliatone/go-widgetflow/pkg/transport"
)

// scriptedDriver answers every text prompt with the next scripted line.
type scriptedDriver struct {
	lines []string
	info  []string
}

func (d *scriptedDriver) Input(context.Context, tui.InputConfig) (string, error) {
	if len(d.lines) == 0 {
		return "", tui.ErrAborted
	}
	line := d.lines[0]
	d.lines = d.lines[1:]
	return line, nil
}

func (d *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	return true, nil
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	return 0, nil
}

func (d *scriptedDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return []int{0}, nil
}

func (d *scriptedDriver) TextArea(ctx context.Context, cfg tui.TextAreaConfig) (string, error) {
	return d.Input(ctx, tui.InputConfig{Message: cfg.Message})
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func strPtr(s string) *string { return &s }

func TestTerminal_StreamsAndAnswers(t *testing.T) {
	var out bytes.Buffer
	driver := &scriptedDriver{lines: []string{"Ada"}}
	tr := testsupport.NewTransport()

	term, err := widgetflow.NewTerminal(tr, widgetflow.WithSurfaceOptions(
		tui.WithPromptDriver(driver),
		tui.WithOutput(&out),
	))
	if err != nil {
		t.Fatalf("new terminal: %v", err)
	}
	ctx := context.Background()

	inbound := []transport.Inbound{
		{Type: transport.InboundStreamChunk, MessageID: "m1", Content: strPtr("What is ")},
		{Type: transport.InboundStreamChunk, MessageID: "m1", Content: strPtr("your name?")},
		{Type: transport.InboundStreamEnd, MessageID: "m1"},
		{Type: transport.InboundRenderWidget, Payload: []byte(`{"widgetType":"text-input","widgetId":"name","itemId":"item-1"}`)},
	}
	for _, msg := range inbound {
		if err := term.Session.Handle(ctx, msg); err != nil {
			t.Fatalf("handle %s: %v", msg.Type, err)
		}
	}

	if got := out.String(); got != "assistant: What is your name?\n" {
		t.Fatalf("unexpected stream output %q", got)
	}

	if err := term.Surface.Drain(ctx, term.Session); err != nil {
		t.Fatalf("drain: %v", err)
	}
	want := []testsupport.Call{{
		Kind:       testsupport.CallWidgetResponse,
		ItemID:     "item-1",
		WidgetID:   "name",
		WidgetType: "text-input",
		Response:   map[string]any{"text": "Ada"},
	}}
	if diff := cmp.Diff(want, tr.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"> Ada"}, driver.info); diff != "" {
		t.Fatalf("echo mismatch (-want +got):\n%s", diff)
	}
}

func TestTerminal_RunEndsOnAbort(t *testing.T) {
	driver := &scriptedDriver{}
	term, err := widgetflow.NewTerminal(testsupport.NewTransport(), widgetflow.WithSurfaceOptions(
		tui.WithPromptDriver(driver),
		tui.WithOutput(&bytes.Buffer{}),
	))
	if err != nil {
		t.Fatalf("new terminal: %v", err)
	}
	ctx := context.Background()
	if err := term.Session.Handle(ctx, transport.Inbound{
		Type:    transport.InboundRenderWidget,
		Payload: []byte(`{"widgetType":"text-input","widgetId":"q","itemId":"item-1"}`),
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if err := term.Run(ctx); err != nil {
		t.Fatalf("expected clean exit on abort, got %v", err)
	}
	if err := term.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestConnect_FailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := widgetflow.Connect(ctx, "ws://127.0.0.1:1/ws"); err == nil {
		t.Fatalf("expected dial error")
	}
}
