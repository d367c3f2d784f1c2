package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-widgetflow/internal/telemetry"
	"github.com/goliatone/go-widgetflow/pkg/echo"
	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/transport"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

// ConfirmBatch validates every rendered answerable widget and, when all pass,
// submits their responses for the current item in one call and clears the
// surface. On failure nothing is sent or removed.
func (e *Engine) ConfirmBatch(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.confirmBatchLocked(ctx)
}

func (e *Engine) confirmBatchLocked(ctx context.Context) error {
	itemID := e.currentItem
	if itemID == "" {
		e.logger.Error(ctx, "batch confirmation without item", "err", ErrNoItem)
		e.resetConfirmControls()
		return ErrNoItem
	}

	candidates := e.answerable()

	if verr := e.validate(itemID, candidates); verr != nil {
		e.resetConfirmControls()
		e.metrics.IncCounter(ctx, telemetry.MetricValidationFailures, int64(len(verr.Failures)), "item_id", itemID)
		e.logger.Info(ctx, "batch rejected", "item_id", itemID, "failures", len(verr.Failures))
		e.publish(ctx, EventBatchRejected, lifecycleEvent{ItemID: itemID, Count: len(verr.Failures)})
		return verr
	}

	responses := make(map[string]transport.BatchEntry, len(candidates))
	entries := make([]echo.Entry, 0, len(candidates))
	for _, inst := range candidates {
		if display, ok := inst.node.(surface.ErrorDisplay); ok {
			display.ClearError()
		}
		resp, ok := e.collect(inst)
		if !ok {
			continue
		}
		responses[inst.id] = transport.BatchEntry{WidgetType: inst.widgetType, Value: map[string]any(resp)}
		entries = append(entries, echo.Entry{WidgetID: inst.id, WidgetType: inst.widgetType, Response: resp})
	}

	// Submit before echoing so a transport failure leaves no echo and keeps
	// every widget and pending response for a retry.
	if err := e.transport.SubmitBatchResponse(ctx, itemID, responses); err != nil {
		e.resetConfirmControls()
		return fmt.Errorf("engine: submit batch for item %q: %w", itemID, err)
	}

	e.echoLocked(ctx, itemID, entries...)
	e.removeAllLocked(ctx)
	e.surface.ScrollToEnd(ctx)

	e.metrics.IncCounter(ctx, telemetry.MetricBatchSubmissions, 1, "item_id", itemID)
	e.logger.Debug(ctx, "batch submitted", "item_id", itemID, "responses", len(responses))
	e.publish(ctx, EventBatchSubmitted, lifecycleEvent{ItemID: itemID, Count: len(responses)})
	return nil
}

// answerable lists rendered widgets that take part in a batch: everything
// except display widgets and the confirm action itself.
func (e *Engine) answerable() []*instance {
	var out []*instance
	for _, inst := range e.instances.list() {
		if inst.desc.Category == widgets.CategoryDisplay || inst.desc.IsConfirm() {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// validate checks every required candidate and shows errors on failures.
// It returns nil when the batch may proceed.
func (e *Engine) validate(itemID string, candidates []*instance) *ValidationError {
	var failures []FieldFailure
	for _, inst := range candidates {
		if !inst.required {
			continue
		}
		messages := e.check(inst)
		display, canDisplay := inst.node.(surface.ErrorDisplay)
		if len(messages) == 0 {
			if canDisplay {
				display.ClearError()
			}
			continue
		}
		failures = append(failures, FieldFailure{WidgetID: inst.id, Messages: messages})
		if canDisplay {
			display.ShowError(strings.Join(messages, " "))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &ValidationError{ItemID: itemID, Failures: failures}
}

// check returns the validation messages for a required widget. Validatable
// wins over Valuer; a widget with neither is valid once it has a pending
// response.
func (e *Engine) check(inst *instance) []string {
	switch node := inst.node.(type) {
	case surface.Validatable:
		result := node.Validate()
		if result.Valid {
			return nil
		}
		if messages := normalizeMessages(result.Errors); len(messages) > 0 {
			return messages
		}
		return []string{defaultRequiredMessage}
	case surface.Valuer:
		if value, ok := node.Value(); ok && value != nil {
			return nil
		}
		return []string{defaultRequiredMessage}
	default:
		if _, ok := e.pending.get(inst.id); ok {
			return nil
		}
		return []string{defaultRequiredMessage}
	}
}

// collect returns the response a widget contributes: the pending response if
// any, otherwise its queried current value.
func (e *Engine) collect(inst *instance) (Response, bool) {
	if resp, ok := e.pending.get(inst.id); ok {
		return resp, true
	}
	valuer, ok := inst.node.(surface.Valuer)
	if !ok {
		return nil, false
	}
	value, present := valuer.Value()
	if !present || value == nil {
		return nil, false
	}
	return responseFrom(value), true
}

// resetConfirmControls returns every rendered confirm widget to its
// pre-click state so the user may retry.
func (e *Engine) resetConfirmControls() {
	for _, inst := range e.instances.list() {
		if !inst.desc.IsConfirm() {
			continue
		}
		if resetter, ok := inst.node.(surface.Resetter); ok {
			resetter.Reset()
		}
	}
}
