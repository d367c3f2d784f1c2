package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgetflow/pkg/engine"
	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/testsupport"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

func TestSubmitSingle_ImmediatePath(t *testing.T) {
	var got []engine.Submission
	eng, tr, sf := newEngine(t, engine.WithResponseCallback(func(_ context.Context, sub engine.Submission) {
		got = append(got, sub)
	}))
	ctx := context.Background()

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeSingleChoice, WidgetID: "color", ItemID: "item-1", Options: []any{"Red", "Blue"}})
	render(t, eng, engine.Instruction{WidgetType: widgets.TypeSlider, WidgetID: "size", ItemID: "item-1"})

	eng.HandleEvent(ctx, surface.Event{WidgetID: "color", Kind: surface.EventResponse, Payload: map[string]any{"selected": "Blue"}})

	want := []testsupport.Call{{
		Kind:       testsupport.CallWidgetResponse,
		ItemID:     "item-1",
		WidgetID:   "color",
		WidgetType: widgets.TypeSingleChoice,
		Response:   map[string]any{"selected": "Blue"},
	}}
	if diff := cmp.Diff(want, tr.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"size"}, eng.Rendered()); diff != "" {
		t.Fatalf("rendered mismatch (-want +got):\n%s", diff)
	}
	echoes := sf.Echoes()
	if len(echoes) != 1 || echoes[0].Text != "Blue" || echoes[0].ItemID != "item-1" || echoes[0].ID == "" {
		t.Fatalf("unexpected echoes %+v", echoes)
	}
	wantSubs := []engine.Submission{{ItemID: "item-1", WidgetID: "color", WidgetType: widgets.TypeSingleChoice, Response: engine.Response{"selected": "Blue"}}}
	if diff := cmp.Diff(wantSubs, got); diff != "" {
		t.Fatalf("callback mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSingle_ScalarPayloadWrapped(t *testing.T) {
	eng, tr, _ := newEngine(t)

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeSlider, WidgetID: "s", ItemID: "item-1"})
	if err := eng.SubmitSingle(context.Background(), "s", 7); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"value": 7}, tr.Calls()[0].Response); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSingle_NilPayloadQueriesWidget(t *testing.T) {
	eng, tr, sf := newEngine(t)
	sf.Factory = func(spec surface.MountSpec) surface.Node {
		return testsupport.NewWidgetWithValue(spec.ID, map[string]any{"text": "typed"})
	}

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "t", ItemID: "item-1"})
	eng.HandleEvent(context.Background(), surface.Event{WidgetID: "t", Kind: surface.EventSubmit})

	if diff := cmp.Diff(map[string]any{"text": "typed"}, tr.Calls()[0].Response); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSingle_FallsBackToMessageWithoutItem(t *testing.T) {
	eng, tr, _ := newEngine(t)

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextArea, WidgetID: "free"})
	eng.HandleEvent(context.Background(), surface.Event{WidgetID: "free", Kind: surface.EventResponse, Payload: map[string]any{"text": "<i>hello</i>"}})

	want := []testsupport.Call{{Kind: testsupport.CallMessage, Text: "<i>hello</i>"}}
	if diff := cmp.Diff(want, tr.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSingle_MarkupAnswersSentAndEchoedVerbatim(t *testing.T) {
	eng, tr, sf := newEngine(t)
	ctx := context.Background()

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeCodeEditor, WidgetID: "snippet"})
	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "decl"})
	eng.HandleEvent(ctx, surface.Event{WidgetID: "snippet", Kind: surface.EventResponse, Payload: map[string]any{"code": "<div>hi</div>"}})
	eng.HandleEvent(ctx, surface.Event{WidgetID: "decl", Kind: surface.EventResponse, Payload: map[string]any{"text": "List<String> x"}})

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeCodeEditor, WidgetID: "br", ItemID: "item-1"})
	eng.HandleEvent(ctx, surface.Event{WidgetID: "br", Kind: surface.EventResponse, Payload: map[string]any{"code": "<br/>"}})

	wantCalls := []testsupport.Call{
		{Kind: testsupport.CallMessage, Text: "<div>hi</div>"},
		{Kind: testsupport.CallMessage, Text: "List<String> x"},
		{Kind: testsupport.CallWidgetResponse, ItemID: "item-1", WidgetID: "br", WidgetType: widgets.TypeCodeEditor, Response: map[string]any{"code": "<br/>"}},
	}
	if diff := cmp.Diff(wantCalls, tr.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}

	var texts []string
	for _, msg := range sf.Echoes() {
		texts = append(texts, msg.Text)
	}
	if diff := cmp.Diff([]string{"<div>hi</div>", "List<String> x", "<br/>"}, texts); diff != "" {
		t.Fatalf("echo mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSingle_WhitespaceOnlyTextNotSent(t *testing.T) {
	eng, tr, _ := newEngine(t)

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "blank"})
	eng.HandleEvent(context.Background(), surface.Event{WidgetID: "blank", Kind: surface.EventResponse, Payload: map[string]any{"text": "   "}})

	if calls := tr.Calls(); len(calls) != 0 {
		t.Fatalf("expected nothing sent, got %+v", calls)
	}
	if len(eng.Rendered()) != 0 {
		t.Fatalf("expected widget removed, got %v", eng.Rendered())
	}
}

func TestSubmitSingle_EchoSuppressedOnce(t *testing.T) {
	eng, _, sf := newEngine(t)
	ctx := context.Background()

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "secret", ItemID: "item-1", ShowUserResponse: boolPtr(false)})
	eng.HandleEvent(ctx, surface.Event{WidgetID: "secret", Kind: surface.EventResponse, Payload: map[string]any{"text": "hunter2"}})
	if echoes := sf.Echoes(); len(echoes) != 0 {
		t.Fatalf("expected suppressed echo, got %+v", echoes)
	}

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "name", ItemID: "item-2"})
	eng.HandleEvent(ctx, surface.Event{WidgetID: "name", Kind: surface.EventResponse, Payload: map[string]any{"text": "Ada"}})
	echoes := sf.Echoes()
	if len(echoes) != 1 || echoes[0].Text != "Ada" {
		t.Fatalf("expected echo after suppression reset, got %+v", echoes)
	}
}

func TestSubmitSingle_RejectedInConfirmationMode(t *testing.T) {
	eng, tr, _ := newEngine(t)

	eng.SetItem("item-1", true)
	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "a"})

	if err := eng.SubmitSingle(context.Background(), "a", "x"); !errors.Is(err, engine.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if err := eng.SubmitSingle(context.Background(), "ghost", "x"); !errors.Is(err, engine.ErrUnknownWidget) {
		t.Fatalf("expected ErrUnknownWidget, got %v", err)
	}
	if calls := tr.Calls(); len(calls) != 0 {
		t.Fatalf("expected no submissions, got %+v", calls)
	}
}

func TestSubmitSingle_TransportFailureKeepsWidget(t *testing.T) {
	eng, tr, sf := newEngine(t)
	tr.Err = errors.New("offline")

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "a", ItemID: "item-1"})
	if err := eng.SubmitSingle(context.Background(), "a", map[string]any{"text": "x"}); err == nil {
		t.Fatalf("expected transport error")
	}
	if diff := cmp.Diff([]string{"a"}, eng.Rendered()); diff != "" {
		t.Fatalf("rendered mismatch (-want +got):\n%s", diff)
	}
	if echoes := sf.Echoes(); len(echoes) != 0 {
		t.Fatalf("no echo on failure, got %+v", echoes)
	}
}

func TestSkipAndAcknowledge_RequireItem(t *testing.T) {
	eng, tr, _ := newEngine(t)
	ctx := context.Background()

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "a", Skippable: true})
	render(t, eng, engine.Instruction{WidgetType: widgets.TypeDisplayImage, WidgetID: "img"})

	if err := eng.SkipSingle(ctx, "a"); !errors.Is(err, engine.ErrNoItem) {
		t.Fatalf("expected ErrNoItem on skip, got %v", err)
	}
	if err := eng.Acknowledge(ctx, "img"); !errors.Is(err, engine.ErrNoItem) {
		t.Fatalf("expected ErrNoItem on acknowledge, got %v", err)
	}
	if calls := tr.Calls(); len(calls) != 0 {
		t.Fatalf("expected no submissions, got %+v", calls)
	}
	if diff := cmp.Diff([]string{"a", "img"}, eng.Rendered()); diff != "" {
		t.Fatalf("rendered mismatch (-want +got):\n%s", diff)
	}
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []map[string]any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestLifecycleEventsPublished(t *testing.T) {
	pub := &recordingPublisher{}
	eng, _, _ := newEngine(t, engine.WithPublisher(pub))
	ctx := context.Background()

	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "a", ItemID: "item-1"})
	if err := eng.SubmitSingle(ctx, "a", map[string]any{"text": "x"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	eng.SetItem("item-2", true)
	render(t, eng, engine.Instruction{WidgetType: widgets.TypeTextInput, WidgetID: "b", Required: true})
	_ = eng.ConfirmBatch(ctx)
	eng.ClearAll(ctx)

	want := []string{
		"widgetflow.widget.rendered",
		"widgetflow.widget.submitted",
		"widgetflow.widget.rendered",
		"widgetflow.batch.rejected",
		"widgetflow.widgets.cleared",
	}
	if diff := cmp.Diff(want, pub.subjects); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
	if pub.payloads[1]["widgetId"] != "a" || pub.payloads[1]["itemId"] != "item-1" {
		t.Fatalf("unexpected submitted payload %v", pub.payloads[1])
	}
}
