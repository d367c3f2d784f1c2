package engine

import (
	"context"
	"encoding/json"
	"time"
)

// Lifecycle events published when a bus.Publisher is configured. The bus
// subject is SubjectPrefix followed by the event name.
const (
	SubjectPrefix = "widgetflow."

	EventWidgetRendered     = "widget.rendered"
	EventWidgetSubmitted    = "widget.submitted"
	EventWidgetSkipped      = "widget.skipped"
	EventWidgetAcknowledged = "widget.acknowledged"
	EventBatchSubmitted     = "batch.submitted"
	EventBatchRejected      = "batch.rejected"
	EventWidgetsCleared     = "widgets.cleared"
)

type lifecycleEvent struct {
	Event      string    `json:"event"`
	ItemID     string    `json:"itemId,omitempty"`
	WidgetID   string    `json:"widgetId,omitempty"`
	WidgetType string    `json:"widgetType,omitempty"`
	Count      int       `json:"count,omitempty"`
	At         time.Time `json:"at"`
}

func (e *Engine) publish(ctx context.Context, event string, payload lifecycleEvent) {
	if e.publisher == nil {
		return
	}
	payload.Event = event
	payload.At = time.Now().UTC()
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Warn(ctx, "lifecycle event encoding failed", "event", event, "err", err)
		return
	}
	if err := e.publisher.Publish(ctx, SubjectPrefix+event, data); err != nil {
		e.logger.Warn(ctx, "lifecycle event publish failed", "event", event, "err", err)
	}
}
