package testsupport

import (
	"sync"

	"github.com/goliatone/go-widgetflow/pkg/surface"
)

// Widget is a scripted node exposing Valuer, ErrorDisplay and Resetter.
type Widget struct {
	mu       sync.Mutex
	id       string
	value    any
	hasValue bool
	errText  string
	resets   int
}

// NewWidget returns a widget without a value.
func NewWidget(id string) *Widget {
	return &Widget{id: id}
}

// NewWidgetWithValue returns a widget holding value.
func NewWidgetWithValue(id string, value any) *Widget {
	return &Widget{id: id, value: value, hasValue: true}
}

var (
	_ surface.Valuer       = (*Widget)(nil)
	_ surface.ErrorDisplay = (*Widget)(nil)
	_ surface.Resetter     = (*Widget)(nil)
)

func (w *Widget) ID() string { return w.id }

func (w *Widget) Value() (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value, w.hasValue
}

// SetValue scripts the widget's current value.
func (w *Widget) SetValue(value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = value
	w.hasValue = true
}

func (w *Widget) ShowError(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errText = message
}

func (w *Widget) ClearError() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errText = ""
}

// ErrorText returns the inline error currently shown.
func (w *Widget) ErrorText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errText
}

func (w *Widget) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resets++
}

// Resets counts Reset calls.
func (w *Widget) Resets() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resets
}

// ValidatingWidget adds a scripted Validate result to Widget.
type ValidatingWidget struct {
	*Widget
	Result surface.Validation
}

// NewValidatingWidget returns a widget whose Validate reports result.
func NewValidatingWidget(id string, result surface.Validation) *ValidatingWidget {
	return &ValidatingWidget{Widget: NewWidget(id), Result: result}
}

var _ surface.Validatable = (*ValidatingWidget)(nil)

func (w *ValidatingWidget) Validate() surface.Validation {
	return w.Result
}

// BareNode exposes no capabilities.
type BareNode struct {
	NodeID string
}

func (n BareNode) ID() string { return n.NodeID }
