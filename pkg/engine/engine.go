package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-widgetflow/internal/telemetry"
	"github.com/goliatone/go-widgetflow/pkg/bus"
	"github.com/goliatone/go-widgetflow/pkg/echo"
	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/transport"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

const (
	skipLabel = "Skip"
	nextLabel = "Next"
)

// Submission describes a single-widget response handed to the response
// callback after it was sent.
type Submission struct {
	ItemID     string
	WidgetID   string
	WidgetType string
	Response   Response
}

// ResponseCallback observes single-widget submissions. It runs with the
// engine lock held and must not call back into the engine.
type ResponseCallback func(ctx context.Context, sub Submission)

// Option customises an Engine.
type Option func(*Engine)

// WithRegistry overrides the widget type registry.
func WithRegistry(registry *widgets.Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// WithFormatter overrides the echo formatter.
func WithFormatter(formatter *echo.Formatter) Option {
	return func(e *Engine) {
		if formatter != nil {
			e.formatter = formatter
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger telemetry.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics telemetry.Metrics) Option {
	return func(e *Engine) {
		if metrics != nil {
			e.metrics = metrics
		}
	}
}

// WithPublisher publishes lifecycle events as JSON under "widgetflow.<event>".
func WithPublisher(publisher bus.Publisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

// WithAttributeStyle selects how widgetConfig keys are named on the surface.
func WithAttributeStyle(style surface.AttributeStyle) Option {
	return func(e *Engine) {
		e.attrStyle = style
	}
}

// WithResponseCallback registers a callback for single-widget submissions.
// ClearAll drops it.
func WithResponseCallback(cb ResponseCallback) Option {
	return func(e *Engine) {
		e.callback = cb
	}
}

// Engine is the widget lifecycle engine. It owns the instance and pending
// stores for one conversation; all operations are serialised.
type Engine struct {
	mu sync.Mutex

	transport transport.Transport
	surface   surface.Surface
	registry  *widgets.Registry
	formatter *echo.Formatter
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	publisher bus.Publisher
	attrStyle surface.AttributeStyle
	callback  ResponseCallback

	instances    *instanceStore
	pending      *pendingStore
	currentItem  string
	confirmation map[string]bool
	suppressEcho bool
}

// New builds an engine that sends responses through t and renders on s.
func New(t transport.Transport, s surface.Surface, options ...Option) (*Engine, error) {
	if t == nil {
		return nil, fmt.Errorf("engine: transport is required")
	}
	if s == nil {
		return nil, fmt.Errorf("engine: surface is required")
	}

	e := &Engine{
		transport:    t,
		surface:      s,
		logger:       telemetry.NewNoopLogger(),
		metrics:      telemetry.NewNoopMetrics(),
		instances:    newInstanceStore(),
		pending:      newPendingStore(),
		confirmation: make(map[string]bool),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	if e.registry == nil {
		e.registry = widgets.NewRegistry()
	}
	if e.formatter == nil {
		formatter, err := echo.NewFormatter()
		if err != nil {
			return nil, fmt.Errorf("engine: echo formatter: %w", err)
		}
		e.formatter = formatter
	}
	return e, nil
}

// Registry exposes the widget type registry in use.
func (e *Engine) Registry() *widgets.Registry {
	return e.registry
}

// SetItem makes itemID the current item and records whether it collects
// responses for a confirmed batch.
func (e *Engine) SetItem(itemID string, requireConfirmation bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentItem = strings.TrimSpace(itemID)
	e.confirmation[e.currentItem] = requireConfirmation
}

// CurrentItem returns the item responses are submitted for.
func (e *Engine) CurrentItem() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentItem
}

// RequiresConfirmation reports the confirmation mode of itemID.
func (e *Engine) RequiresConfirmation(itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.confirmation[itemID]
}

// SetResponseCallback replaces the single-submission callback.
func (e *Engine) SetResponseCallback(cb ResponseCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callback = cb
}

// RenderWidget materialises the widget described by in and wires its events.
// Unknown widget types degrade to a generic input widget.
func (e *Engine) RenderWidget(ctx context.Context, in Instruction) error {
	widgetType := strings.TrimSpace(in.WidgetType)
	if widgetType == "" {
		return ErrMissingWidgetType
	}
	id := in.ID()
	if id == "" {
		return ErrMissingWidgetID
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	desc := e.registry.Resolve(widgetType)
	if desc.Synthesized {
		e.logger.Debug(ctx, "unknown widget type, rendering generic input", "widget_type", widgetType, "render_tag", desc.RenderTag)
	}

	if item := strings.TrimSpace(in.ItemID); item != "" {
		e.currentItem = item
	}
	itemID := e.currentItem
	if in.RequireConfirmation != nil {
		e.confirmation[itemID] = *in.RequireConfirmation
	}
	confirmation := e.confirmation[itemID]

	if previous, exists := e.instances.get(id); exists {
		e.logger.Warn(ctx, "widget id re-rendered, detaching previous node", "widget_id", id)
		e.removeLocked(ctx, previous)
	}

	node, err := e.surface.Mount(ctx, surface.MountSpec{
		ID:         id,
		ItemID:     itemID,
		Type:       widgetType,
		RenderTag:  desc.RenderTag,
		Category:   desc.Category,
		Attributes: e.attributes(desc, in),
	})
	if err != nil {
		return fmt.Errorf("engine: mount widget %q: %w", id, err)
	}

	inst := &instance{
		id:         id,
		itemID:     itemID,
		widgetType: widgetType,
		desc:       desc,
		required:   in.Required,
		skippable:  in.Skippable,
		node:       node,
		wiring:     selectWiring(desc, confirmation),
	}

	if kind, ok := controlKind(desc, in, confirmation); ok {
		ctl, err := e.mountControl(ctx, id, kind)
		if err != nil {
			e.surface.Detach(ctx, node)
			return err
		}
		inst.control = ctl
	}

	e.instances.add(inst)
	if !in.ShowsEcho() {
		e.suppressEcho = true
	}
	e.surface.ScrollToEnd(ctx)

	e.metrics.IncCounter(ctx, telemetry.MetricWidgetsRendered, 1, "widget_type", widgetType, "category", desc.Category.String())
	e.logger.Debug(ctx, "widget rendered", "widget_id", id, "item_id", itemID, "wiring", inst.wiring.name())
	e.publish(ctx, EventWidgetRendered, lifecycleEvent{ItemID: itemID, WidgetID: id, WidgetType: widgetType})
	return nil
}

// controlKind decides which auxiliary control, if any, a widget gets.
func controlKind(desc widgets.Descriptor, in Instruction, confirmation bool) (surface.ControlKind, bool) {
	if confirmation {
		return "", false
	}
	switch desc.Category {
	case widgets.CategoryInput:
		if in.Skippable {
			return surface.ControlSkip, true
		}
	case widgets.CategoryDisplay:
		if in.Skippable || !in.Required {
			return surface.ControlNext, true
		}
	}
	return "", false
}

func (e *Engine) mountControl(ctx context.Context, targetID string, kind surface.ControlKind) (*control, error) {
	label := skipLabel
	if kind == surface.ControlNext {
		label = nextLabel
	}
	spec := surface.ControlSpec{
		ID:       ControlID(targetID, kind),
		TargetID: targetID,
		Kind:     kind,
		Label:    label,
	}
	node, err := e.surface.MountControl(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("engine: mount %s control for %q: %w", kind, targetID, err)
	}
	return &control{id: spec.ID, targetID: targetID, kind: kind, node: node}, nil
}

// ControlID returns the id of the auxiliary control attached to widgetID.
func ControlID(widgetID string, kind surface.ControlKind) string {
	return widgetID + ":" + string(kind)
}

// attributes builds the widget-level attributes handed to the surface.
func (e *Engine) attributes(desc widgets.Descriptor, in Instruction) map[string]any {
	attrs := surface.TranslateAttributes(in.WidgetConfig, e.attrStyle)
	if attrs == nil {
		attrs = make(map[string]any)
	}
	if desc.FormatAttribute != "" {
		if format, ok := in.WidgetConfig["format"]; ok {
			attrs[desc.FormatAttribute] = format
		}
	}
	if in.Stem != "" {
		attrs[desc.PromptAttribute()] = in.Stem
	}
	attrs["required"] = in.Required
	attrs["skippable"] = in.Skippable
	if in.InitialValue != nil {
		if encoded, err := json.Marshal(in.InitialValue); err == nil {
			attrs[surface.AttributeName("initial_value", e.attrStyle)] = string(encoded)
		}
	}
	if len(in.Options) > 0 {
		attrs["options"] = in.Options
	}
	return attrs
}

// HandleEvent implements surface.Sink. Events without a widget id, or for
// widgets that are no longer rendered, are ignored.
func (e *Engine) HandleEvent(ctx context.Context, ev surface.Event) {
	id := strings.TrimSpace(ev.WidgetID)
	if id == "" {
		e.metrics.IncCounter(ctx, telemetry.MetricIgnoredEvents, 1, "reason", "missing_id")
		e.logger.Warn(ctx, "event without widget id ignored", "kind", string(ev.Kind))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if ctl, ok := e.instances.controlFor(id); ok {
		if ev.Kind != surface.EventActivate {
			e.metrics.IncCounter(ctx, telemetry.MetricIgnoredEvents, 1, "reason", "control_kind")
			e.logger.Debug(ctx, "non-activate event on control ignored", "control_id", id, "kind", string(ev.Kind))
			return
		}
		if err := e.activateControlLocked(ctx, ctl); err != nil {
			e.logger.Error(ctx, "control activation failed", "control_id", id, "err", err)
		}
		return
	}

	inst, ok := e.instances.get(id)
	if !ok {
		e.metrics.IncCounter(ctx, telemetry.MetricIgnoredEvents, 1, "reason", "unknown_id")
		e.logger.Warn(ctx, "event for unknown widget ignored", "widget_id", id, "kind", string(ev.Kind))
		return
	}

	if err := inst.wiring.handle(ctx, e, inst, ev); err != nil {
		e.logger.Error(ctx, "widget event failed", "widget_id", id, "kind", string(ev.Kind), "err", err)
	}
}

func (e *Engine) activateControlLocked(ctx context.Context, ctl *control) error {
	inst, ok := e.instances.get(ctl.targetID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWidget, ctl.targetID)
	}
	switch ctl.kind {
	case surface.ControlSkip:
		return e.skipSingleLocked(ctx, inst)
	case surface.ControlNext:
		return e.acknowledgeLocked(ctx, inst)
	}
	return nil
}

// Rendered returns the ids of rendered widgets in render order.
func (e *Engine) Rendered() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.instances.list()
	ids := make([]string, 0, len(list))
	for _, inst := range list {
		ids = append(ids, inst.id)
	}
	return ids
}

// Controls returns the ids of rendered auxiliary controls.
func (e *Engine) Controls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, inst := range e.instances.list() {
		if inst.control != nil {
			ids = append(ids, inst.control.id)
		}
	}
	return ids
}

// Pending returns a copy of the pending responses keyed by widget id.
func (e *Engine) Pending() map[string]Response {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.snapshot()
}

// ClearAll removes every widget and control, clears pending responses, drops
// the response callback and resets echo suppression. The transport is not
// notified. Safe to call with nothing rendered.
func (e *Engine) ClearAll(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := e.instances.len()
	e.removeAllLocked(ctx)
	e.callback = nil
	e.suppressEcho = false
	e.currentItem = ""
	e.confirmation = make(map[string]bool)

	e.logger.Debug(ctx, "widgets cleared", "count", count)
	e.publish(ctx, EventWidgetsCleared, lifecycleEvent{Count: count})
}

// removeLocked detaches a widget and its control and forgets its pending
// response.
func (e *Engine) removeLocked(ctx context.Context, inst *instance) {
	e.instances.remove(inst.id)
	e.pending.delete(inst.id)
	if inst.control != nil && inst.control.node != nil {
		e.surface.Detach(ctx, inst.control.node)
	}
	if inst.node != nil {
		e.surface.Detach(ctx, inst.node)
	}
}

func (e *Engine) removeAllLocked(ctx context.Context) {
	for _, inst := range e.instances.list() {
		if inst.control != nil && inst.control.node != nil {
			e.surface.Detach(ctx, inst.control.node)
		}
		if inst.node != nil {
			e.surface.Detach(ctx, inst.node)
		}
	}
	e.instances.reset()
	e.pending.reset()
}

// itemFor returns the item a widget submits for.
func (e *Engine) itemFor(inst *instance) string {
	if inst.itemID != "" {
		return inst.itemID
	}
	return e.currentItem
}

// takeEchoSuppression reports whether the next echo is suppressed and resets
// the flag.
func (e *Engine) takeEchoSuppression() bool {
	suppressed := e.suppressEcho
	e.suppressEcho = false
	return suppressed
}
