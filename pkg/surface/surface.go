// Package surface defines the contract between the widget lifecycle engine
// and whatever paints widgets for the user. The engine only ever talks to a
// Surface and to the optional capabilities a mounted Node chooses to expose.
package surface

import (
	"context"

	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

// Node is anything the engine placed on a surface: a widget or an auxiliary
// control.
type Node interface {
	ID() string
}

// MountSpec describes a widget to materialise.
type MountSpec struct {
	ID         string
	ItemID     string
	Type       string
	RenderTag  string
	Category   widgets.Category
	Attributes map[string]any
}

// ControlKind distinguishes the auxiliary controls the engine creates.
type ControlKind string

const (
	// ControlSkip skips the target widget.
	ControlSkip ControlKind = "skip"
	// ControlNext acknowledges a display widget.
	ControlNext ControlKind = "next"
)

// ControlSpec describes an auxiliary control attached to a widget.
type ControlSpec struct {
	ID       string
	TargetID string
	Kind     ControlKind
	Label    string
}

// EchoMessage is a read-only bubble showing the user's own response.
type EchoMessage struct {
	ID     string
	ItemID string
	Text   string
}

// Surface materialises widgets and controls. Implementations report user
// interaction back to the engine as Events.
type Surface interface {
	Mount(ctx context.Context, spec MountSpec) (Node, error)
	MountControl(ctx context.Context, spec ControlSpec) (Node, error)
	Echo(ctx context.Context, msg EchoMessage) error
	Detach(ctx context.Context, node Node)
	ScrollToEnd(ctx context.Context)
}

// Validation is the outcome of a widget's own validity check.
type Validation struct {
	Valid  bool
	Errors []string
}

// Valuer exposes a widget's current value. ok is false when the widget holds
// no value.
type Valuer interface {
	Value() (value any, ok bool)
}

// Validatable widgets judge their own validity.
type Validatable interface {
	Validate() Validation
}

// ErrorDisplay widgets can present and clear an inline error.
type ErrorDisplay interface {
	ShowError(message string)
	ClearError()
}

// Resetter widgets can return to their pre-interaction state.
type Resetter interface {
	Reset()
}
