package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoItem is returned when a submission needs an item id and none is
	// known.
	ErrNoItem = errors.New("engine: no current item")
	// ErrUnknownWidget is returned when an operation names a widget that is
	// not rendered.
	ErrUnknownWidget = errors.New("engine: unknown widget")
	// ErrMissingWidgetID is returned when an instruction carries neither
	// widgetId nor contentId.
	ErrMissingWidgetID = errors.New("engine: instruction has no widget id")
	// ErrMissingWidgetType is returned when an instruction omits widgetType.
	ErrMissingWidgetType = errors.New("engine: instruction has no widget type")
	// ErrConfirmationRequired is returned by SubmitSingle when the widget's
	// item collects responses for a batch.
	ErrConfirmationRequired = errors.New("engine: item requires confirmation")
)

// FieldFailure lists the validation messages of one widget.
type FieldFailure struct {
	WidgetID string
	Messages []string
}

// ValidationError aborts a batch confirmation. Nothing was submitted and
// every widget is still rendered.
type ValidationError struct {
	ItemID   string
	Failures []FieldFailure
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Failures) == 0 {
		return "engine: validation failed"
	}
	ids := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		ids = append(ids, failure.WidgetID)
	}
	return fmt.Sprintf("engine: validation failed for item %q: %s", e.ItemID, strings.Join(ids, ", "))
}

// Failed reports whether widgetID is among the failures.
func (e *ValidationError) Failed(widgetID string) bool {
	if e == nil {
		return false
	}
	for _, failure := range e.Failures {
		if failure.WidgetID == widgetID {
			return true
		}
	}
	return false
}

const defaultRequiredMessage = "This field is required."

// normalizeMessages trims and de-duplicates messages, preserving order.
func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
