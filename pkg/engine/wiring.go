package engine

import (
	"context"

	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

// wiring decides what a widget's events do. One strategy is chosen per
// widget at render time; handle runs with the engine lock held.
type wiring interface {
	name() string
	handle(ctx context.Context, e *Engine, inst *instance, ev surface.Event) error
}

// selectWiring applies the render-time decision table.
func selectWiring(desc widgets.Descriptor, confirmation bool) wiring {
	switch {
	case desc.IsConfirm():
		return confirmWiring{}
	case desc.Category == widgets.CategoryDisplay:
		return displayWiring{}
	case confirmation:
		return batchWiring{}
	default:
		return immediateWiring{}
	}
}

// confirmWiring triggers batch validation and submission.
type confirmWiring struct{}

func (confirmWiring) name() string { return "confirm" }

func (confirmWiring) handle(ctx context.Context, e *Engine, _ *instance, ev surface.Event) error {
	switch ev.Kind {
	case surface.EventConfirm, surface.EventSubmit, surface.EventResponse:
		return e.confirmBatchLocked(ctx)
	}
	return nil
}

// displayWiring ignores widget events; only its Next control acts.
type displayWiring struct{}

func (displayWiring) name() string { return "display" }

func (displayWiring) handle(context.Context, *Engine, *instance, surface.Event) error {
	return nil
}

// batchWiring records interactions in the pending store.
type batchWiring struct{}

func (batchWiring) name() string { return "batch" }

func (batchWiring) handle(_ context.Context, e *Engine, inst *instance, ev surface.Event) error {
	switch ev.Kind {
	case surface.EventSelectionChanged, surface.EventResponse, surface.EventSubmit:
		if resp := responseFrom(ev.Payload); resp != nil {
			e.pending.put(inst.id, resp)
		}
	case surface.EventSkip:
		e.pending.put(inst.id, SkipResponse())
	}
	return nil
}

// immediateWiring submits each response as soon as it arrives.
type immediateWiring struct{}

func (immediateWiring) name() string { return "immediate" }

func (immediateWiring) handle(ctx context.Context, e *Engine, inst *instance, ev surface.Event) error {
	switch ev.Kind {
	case surface.EventResponse, surface.EventSubmit:
		return e.submitSingleLocked(ctx, inst, responseFrom(ev.Payload))
	case surface.EventSkip:
		return e.skipSingleLocked(ctx, inst)
	}
	return nil
}
