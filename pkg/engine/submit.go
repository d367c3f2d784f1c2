package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-widgetflow/internal/telemetry"
	"github.com/goliatone/go-widgetflow/pkg/echo"
	"github.com/goliatone/go-widgetflow/pkg/surface"
)

// SubmitSingle sends payload as the response of widgetID and removes the
// widget. A nil payload falls back to the widget's current value.
func (e *Engine) SubmitSingle(ctx context.Context, widgetID string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instances.get(widgetID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWidget, widgetID)
	}
	if e.confirmation[e.itemFor(inst)] {
		return fmt.Errorf("%w: %q", ErrConfirmationRequired, widgetID)
	}
	return e.submitSingleLocked(ctx, inst, responseFrom(payload))
}

// SkipSingle skips widgetID. In confirmation mode the skip is recorded for
// the batch; otherwise it is sent at once and the widget removed.
func (e *Engine) SkipSingle(ctx context.Context, widgetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instances.get(widgetID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWidget, widgetID)
	}
	return e.skipSingleLocked(ctx, inst)
}

// Acknowledge sends an acknowledgment for widgetID and removes it.
func (e *Engine) Acknowledge(ctx context.Context, widgetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instances.get(widgetID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWidget, widgetID)
	}
	return e.acknowledgeLocked(ctx, inst)
}

func (e *Engine) submitSingleLocked(ctx context.Context, inst *instance, resp Response) error {
	if resp == nil {
		if valuer, ok := inst.node.(surface.Valuer); ok {
			if value, present := valuer.Value(); present {
				resp = responseFrom(value)
			}
		}
	}
	if resp == nil {
		resp = Response{}
	}

	itemID := e.itemFor(inst)
	if itemID != "" {
		if err := e.transport.SubmitWidgetResponse(ctx, itemID, inst.id, inst.widgetType, map[string]any(resp)); err != nil {
			return fmt.Errorf("engine: submit %q: %w", inst.id, err)
		}
	} else if text := resp.Text(); strings.TrimSpace(text) != "" {
		if err := e.transport.SendMessage(ctx, text); err != nil {
			return fmt.Errorf("engine: send message for %q: %w", inst.id, err)
		}
	}

	e.removeLocked(ctx, inst)
	e.echoLocked(ctx, itemID, echo.Entry{WidgetID: inst.id, WidgetType: inst.widgetType, Response: resp})
	e.afterSingle(ctx, EventWidgetSubmitted, itemID, inst, resp)
	return nil
}

func (e *Engine) skipSingleLocked(ctx context.Context, inst *instance) error {
	itemID := e.itemFor(inst)
	if e.confirmation[itemID] {
		e.pending.put(inst.id, SkipResponse())
		e.logger.Debug(ctx, "skip recorded for batch", "widget_id", inst.id, "item_id", itemID)
		return nil
	}
	if itemID == "" {
		return fmt.Errorf("engine: skip %q: %w", inst.id, ErrNoItem)
	}

	resp := SkipResponse()
	if err := e.transport.SubmitWidgetResponse(ctx, itemID, inst.id, inst.widgetType, map[string]any(resp)); err != nil {
		return fmt.Errorf("engine: skip %q: %w", inst.id, err)
	}
	e.removeLocked(ctx, inst)
	e.afterSingle(ctx, EventWidgetSkipped, itemID, inst, resp)
	return nil
}

func (e *Engine) acknowledgeLocked(ctx context.Context, inst *instance) error {
	itemID := e.itemFor(inst)
	if itemID == "" {
		return fmt.Errorf("engine: acknowledge %q: %w", inst.id, ErrNoItem)
	}

	resp := AcknowledgeResponse()
	if err := e.transport.SubmitWidgetResponse(ctx, itemID, inst.id, inst.widgetType, map[string]any(resp)); err != nil {
		return fmt.Errorf("engine: acknowledge %q: %w", inst.id, err)
	}
	e.removeLocked(ctx, inst)
	e.afterSingle(ctx, EventWidgetAcknowledged, itemID, inst, resp)
	return nil
}

func (e *Engine) afterSingle(ctx context.Context, event, itemID string, inst *instance, resp Response) {
	e.metrics.IncCounter(ctx, telemetry.MetricSingleSubmissions, 1, "widget_type", inst.widgetType, "event", event)
	e.publish(ctx, event, lifecycleEvent{ItemID: itemID, WidgetID: inst.id, WidgetType: inst.widgetType})
	if e.callback != nil {
		e.callback(ctx, Submission{
			ItemID:     itemID,
			WidgetID:   inst.id,
			WidgetType: inst.widgetType,
			Response:   cloneResponse(resp),
		})
	}
	e.surface.ScrollToEnd(ctx)
}

// echoLocked appends the echo bubble for entries unless suppression is
// pending, in which case the suppression is consumed.
func (e *Engine) echoLocked(ctx context.Context, itemID string, entries ...echo.Entry) {
	if e.takeEchoSuppression() {
		return
	}
	text, err := e.formatter.Format(entries...)
	if err != nil {
		e.logger.Warn(ctx, "echo formatting failed", "err", err)
		return
	}
	if text == "" {
		return
	}
	if err := e.surface.Echo(ctx, surface.EchoMessage{ID: uuid.NewString(), ItemID: itemID, Text: text}); err != nil {
		e.logger.Warn(ctx, "echo failed", "err", err)
	}
}
