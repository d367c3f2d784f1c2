package tui

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-widgetflow/pkg/echo"
	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

const requiredMessage = "This field is required."

// promptKind selects how a widget is asked in the terminal.
type promptKind int

const (
	promptInput promptKind = iota
	promptSelect
	promptMulti
	promptTextArea
	promptNumber
	promptDisplay
	promptAction
	promptConfirm
)

// widgetNode is a mounted widget. It holds the user's last answer so the
// engine can query it, and an inline error shown on the next prompt.
type widgetNode struct {
	mu sync.Mutex

	spec       surface.MountSpec
	kind       promptKind
	prompt     string
	options    []string
	key        string
	required   bool
	skippable  bool
	min, max   *float64
	initial    any
	hasInitial bool

	answer   map[string]any
	answered bool
	errText  string
	ready    bool
	done     bool
	detached bool
	control  *controlNode
}

var (
	_ surface.Valuer       = (*widgetNode)(nil)
	_ surface.Validatable  = (*widgetNode)(nil)
	_ surface.ErrorDisplay = (*widgetNode)(nil)
	_ surface.Resetter     = (*widgetNode)(nil)
)

func newWidgetNode(spec surface.MountSpec, desc widgets.Descriptor) *widgetNode {
	attrs := spec.Attributes
	w := &widgetNode{
		spec:      spec,
		kind:      kindFor(spec),
		prompt:    echo.PlainText(surface.StringAttr(attrs, desc.PromptAttribute())),
		options:   optionLabels(attrs["options"]),
		key:       responseKey(spec.Type),
		required:  surface.BoolAttr(attrs, "required"),
		skippable: surface.BoolAttr(attrs, "skippable"),
		min:       firstNumber(attrs, "min", "min-value"),
		max:       firstNumber(attrs, "max", "max-value"),
	}
	if raw := surface.StringAttr(attrs, "initial-value"); raw != "" {
		var initial any
		if err := json.Unmarshal([]byte(raw), &initial); err == nil && initial != nil {
			w.initial = initial
			w.hasInitial = true
		}
	}
	if w.kind == promptSelect || w.kind == promptMulti {
		if len(w.options) == 0 {
			w.options = defaultOptions(spec.Type)
		}
		if len(w.options) == 0 {
			w.kind = promptInput
		}
	}
	if w.prompt == "" {
		w.prompt = spec.ID
	}
	return w
}

func kindFor(spec surface.MountSpec) promptKind {
	switch {
	case spec.Category == widgets.CategoryDisplay:
		return promptDisplay
	case spec.Type == widgets.TypeConfirm:
		return promptConfirm
	case spec.Category == widgets.CategoryAction:
		return promptAction
	}
	switch spec.Type {
	case widgets.TypeSingleChoice, widgets.TypeLikert, widgets.TypeThumbs:
		return promptSelect
	case widgets.TypeMultipleChoice, widgets.TypeRanking:
		return promptMulti
	case widgets.TypeTextArea, widgets.TypeCodeEditor, widgets.TypeFeedbackForm:
		return promptTextArea
	case widgets.TypeSlider, widgets.TypeRating:
		return promptNumber
	default:
		return promptInput
	}
}

// responseKey is the response field a free-form answer is stored under.
func responseKey(widgetType string) string {
	switch widgetType {
	case widgets.TypeTextInput, widgets.TypeTextArea, widgets.TypeFeedbackForm:
		return echo.KeyText
	case widgets.TypeCodeEditor:
		return echo.KeyCode
	default:
		return echo.KeyValue
	}
}

func defaultOptions(widgetType string) []string {
	switch widgetType {
	case widgets.TypeThumbs:
		return []string{"up", "down"}
	case widgets.TypeLikert:
		return []string{"Strongly disagree", "Disagree", "Neutral", "Agree", "Strongly agree"}
	}
	return nil
}

func (w *widgetNode) ID() string { return w.spec.ID }

// Value returns the last answer, or the initial value when the user never
// answered.
func (w *widgetNode) Value() (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.answered {
		return cloneMap(w.answer), true
	}
	if w.hasInitial {
		return w.initial, true
	}
	return nil, false
}

func (w *widgetNode) Validate() surface.Validation {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.required || w.answered || w.hasInitial {
		return surface.Validation{Valid: true}
	}
	return surface.Validation{Valid: false, Errors: []string{requiredMessage}}
}

// ShowError records message and queues the widget to be asked again.
func (w *widgetNode) ShowError(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errText = message
	w.done = false
}

func (w *widgetNode) ClearError() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errText = ""
}

// Reset queues the widget to be asked again.
func (w *widgetNode) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = false
}

func (w *widgetNode) record(answer map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.answer = answer
	w.answered = true
}

func (w *widgetNode) finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
}

func (w *widgetNode) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready = true
}

func (w *widgetNode) pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready && !w.done && !w.detached
}

// takeError returns the pending inline error once.
func (w *widgetNode) takeError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := w.errText
	w.errText = ""
	return msg
}

// defaultText renders the value pre-filled into a prompt.
func (w *widgetNode) defaultText() string {
	value, ok := w.Value()
	if !ok || value == nil {
		return ""
	}
	if m, isMap := value.(map[string]any); isMap {
		return echo.Text(m)
	}
	if s, isString := value.(string); isString {
		return s
	}
	return fmt.Sprint(value)
}

// preselected returns the option positions named by the widget's current
// "selected" value, a single label or a list of them.
func (w *widgetNode) preselected() []int {
	value, ok := w.Value()
	if !ok {
		return nil
	}
	m, isMap := value.(map[string]any)
	if !isMap {
		return nil
	}
	var labels []string
	switch sel := m[echo.KeySelected].(type) {
	case string:
		labels = []string{sel}
	case []string:
		labels = sel
	case []any:
		for _, item := range sel {
			labels = append(labels, fmt.Sprint(item))
		}
	}
	var out []int
	for i, option := range w.options {
		if slices.Contains(labels, option) {
			out = append(out, i)
		}
	}
	return out
}

// labels maps picked option positions back to their labels for a
// multi-choice answer.
func (w *widgetNode) labels(picked []int) []any {
	out := make([]any, 0, len(picked))
	for _, idx := range picked {
		if idx >= 0 && idx < len(w.options) {
			out = append(out, w.options[idx])
		}
	}
	return out
}

func (w *widgetNode) checkNumber(raw string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if w.min != nil && n < *w.min {
		return 0, fmt.Errorf("must be at least %v", *w.min)
	}
	if w.max != nil && n > *w.max {
		return 0, fmt.Errorf("must be at most %v", *w.max)
	}
	return n, nil
}

// controlNode is an auxiliary skip or Next control. It is asked together
// with its target widget.
type controlNode struct {
	spec surface.ControlSpec
}

func (c *controlNode) ID() string { return c.spec.ID }

func optionLabels(raw any) []string {
	var items []any
	switch typed := raw.(type) {
	case []any:
		items = typed
	case []string:
		out := make([]string, len(typed))
		copy(out, typed)
		return out
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch typed := item.(type) {
		case string:
			out = append(out, typed)
		case map[string]any:
			if label, ok := typed["label"].(string); ok && label != "" {
				out = append(out, label)
				continue
			}
			out = append(out, fmt.Sprint(typed["value"]))
		default:
			out = append(out, fmt.Sprint(typed))
		}
	}
	return out
}

func firstNumber(attrs map[string]any, names ...string) *float64 {
	for _, name := range names {
		switch typed := attrs[name].(type) {
		case int:
			v := float64(typed)
			return &v
		case int64:
			v := float64(typed)
			return &v
		case float64:
			v := typed
			return &v
		case string:
			if v, err := strconv.ParseFloat(typed, 64); err == nil {
				return &v
			}
		}
	}
	return nil
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
