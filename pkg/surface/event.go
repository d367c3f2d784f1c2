package surface

import "context"

// EventKind enumerates the events a widget or control may emit.
type EventKind string

const (
	EventSelectionChanged EventKind = "selection-changed"
	EventResponse         EventKind = "response"
	EventSubmit           EventKind = "submit"
	EventSkip             EventKind = "skip"
	EventConfirm          EventKind = "confirm"
	// EventActivate is emitted by auxiliary controls.
	EventActivate EventKind = "activate"
)

// Event reports one user interaction. Payload is widget-type specific.
type Event struct {
	WidgetID string
	Kind     EventKind
	Payload  any
}

// Sink receives events from a surface. The engine implements it.
type Sink interface {
	HandleEvent(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(context.Context, Event)

// HandleEvent implements Sink.
func (fn SinkFunc) HandleEvent(ctx context.Context, ev Event) {
	if fn != nil {
		fn(ctx, ev)
	}
}
