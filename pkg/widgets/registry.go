package widgets

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in widget type identifiers exposed by the registry.
const (
	TypeSingleChoice   = "single-choice"
	TypeMultipleChoice = "multiple-choice"
	TypeTextInput      = "text-input"
	TypeTextArea       = "textarea"
	TypeSlider         = "slider"
	TypeRating         = "rating"
	TypeLikert         = "likert"
	TypeFileUpload     = "file-upload"
	TypeDatePicker     = "date-picker"
	TypeRanking        = "ranking"
	TypeCodeEditor     = "code-editor"
	TypeDragDrop       = "drag-drop"
	TypeHotspot        = "hotspot"
	TypeDisplayText    = "display-text"
	TypeDisplayImage   = "display-image"
	TypeDisplayVideo   = "display-video"
	TypeDisplayCard    = "display-card"
	TypeConfirm        = "confirm"
	TypeActionButton   = "action-button"
	TypeThumbs         = "thumbs"
	TypeFeedbackForm   = "feedback-form"
	TypeEmbed          = "embed"
)

// DefaultPromptAttribute is the attribute prompt text binds to when a
// descriptor does not override it.
const DefaultPromptAttribute = "prompt"

// Descriptor identifies how a widget type is materialised and wired.
type Descriptor struct {
	Type             string
	RenderTag        string
	Category         Category
	ContentAttribute string
	FormatAttribute  string
	// Synthesized is set when the descriptor was derived for an unregistered
	// type.
	Synthesized bool
}

// PromptAttribute returns the attribute name the prompt text binds to.
func (d Descriptor) PromptAttribute() string {
	if attr := strings.TrimSpace(d.ContentAttribute); attr != "" {
		return attr
	}
	return DefaultPromptAttribute
}

// IsConfirm reports whether the descriptor is the designated confirm action.
func (d Descriptor) IsConfirm() bool {
	return d.Type == TypeConfirm
}

// Registry maps widget type identifiers to descriptors. Lookups never fail:
// unknown types resolve to a synthesized input descriptor.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// NewRegistry constructs a registry with the built-in widget types
// registered.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry()
	reg.registerBuiltins()
	return reg
}

// NewEmptyRegistry constructs a registry without built-ins.
func NewEmptyRegistry() *Registry {
	return &Registry{descriptors: make(map[string]Descriptor)}
}

// Register adds or replaces a descriptor. The latest registration for a type
// wins.
func (r *Registry) Register(desc Descriptor) error {
	if r == nil {
		return fmt.Errorf("widgets: registry is nil")
	}
	desc.Type = normalizeType(desc.Type)
	if desc.Type == "" {
		return fmt.Errorf("widgets: descriptor type is required")
	}
	desc.RenderTag = strings.TrimSpace(desc.RenderTag)
	if desc.RenderTag == "" {
		return fmt.Errorf("widgets: render tag is required for %q", desc.Type)
	}
	if !desc.Category.Valid() {
		return fmt.Errorf("widgets: invalid category for %q", desc.Type)
	}
	desc.ContentAttribute = strings.TrimSpace(desc.ContentAttribute)
	desc.FormatAttribute = strings.TrimSpace(desc.FormatAttribute)
	desc.Synthesized = false

	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[desc.Type] = desc
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(desc Descriptor) {
	if err := r.Register(desc); err != nil {
		panic(err)
	}
}

// Lookup returns the registered descriptor for a type.
func (r *Registry) Lookup(widgetType string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descriptors[normalizeType(widgetType)]
	return desc, ok
}

// Resolve returns the descriptor for a type, synthesizing an input descriptor
// with a derived render tag when the type is unknown.
func (r *Registry) Resolve(widgetType string) Descriptor {
	if desc, ok := r.Lookup(widgetType); ok {
		return desc
	}
	return Synthesize(widgetType)
}

// Types returns the registered type identifiers, sorted.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Synthesize derives the fallback descriptor for an unregistered type.
func Synthesize(widgetType string) Descriptor {
	normalized := normalizeType(widgetType)
	tag := "widget-generic"
	if normalized != "" {
		tag = "widget-" + normalized
	}
	return Descriptor{
		Type:        normalized,
		RenderTag:   tag,
		Category:    CategoryInput,
		Synthesized: true,
	}
}

func normalizeType(widgetType string) string {
	trimmed := strings.ToLower(strings.TrimSpace(widgetType))
	return strings.ReplaceAll(trimmed, "_", "-")
}

func (r *Registry) registerBuiltins() {
	builtins := []Descriptor{
		{Type: TypeSingleChoice, RenderTag: "widget-single-choice", Category: CategoryInput},
		{Type: TypeMultipleChoice, RenderTag: "widget-multiple-choice", Category: CategoryInput},
		{Type: TypeTextInput, RenderTag: "widget-text-input", Category: CategoryInput},
		{Type: TypeTextArea, RenderTag: "widget-textarea", Category: CategoryInput},
		{Type: TypeSlider, RenderTag: "widget-slider", Category: CategoryInput},
		{Type: TypeRating, RenderTag: "widget-rating", Category: CategoryInput},
		{Type: TypeLikert, RenderTag: "widget-likert", Category: CategoryInput},
		{Type: TypeFileUpload, RenderTag: "widget-file-upload", Category: CategoryInput},
		{Type: TypeDatePicker, RenderTag: "widget-date-picker", Category: CategoryInput},
		{Type: TypeRanking, RenderTag: "widget-ranking", Category: CategoryInput},
		{Type: TypeCodeEditor, RenderTag: "widget-code-editor", Category: CategoryInput, FormatAttribute: "language"},
		{Type: TypeDragDrop, RenderTag: "widget-drag-drop", Category: CategoryInteractive},
		{Type: TypeHotspot, RenderTag: "widget-hotspot", Category: CategoryInteractive},
		{Type: TypeDisplayText, RenderTag: "widget-display-text", Category: CategoryDisplay, ContentAttribute: "content", FormatAttribute: "format"},
		{Type: TypeDisplayImage, RenderTag: "widget-display-image", Category: CategoryDisplay, ContentAttribute: "caption"},
		{Type: TypeDisplayVideo, RenderTag: "widget-display-video", Category: CategoryDisplay, ContentAttribute: "caption"},
		{Type: TypeDisplayCard, RenderTag: "widget-display-card", Category: CategoryDisplay, ContentAttribute: "body"},
		{Type: TypeConfirm, RenderTag: "widget-confirm", Category: CategoryAction, ContentAttribute: "label"},
		{Type: TypeActionButton, RenderTag: "widget-action-button", Category: CategoryAction, ContentAttribute: "label"},
		{Type: TypeThumbs, RenderTag: "widget-thumbs", Category: CategoryFeedback},
		{Type: TypeFeedbackForm, RenderTag: "widget-feedback-form", Category: CategoryFeedback},
		{Type: TypeEmbed, RenderTag: "widget-embed", Category: CategoryEmbedded, ContentAttribute: "title"},
	}
	for _, desc := range builtins {
		r.MustRegister(desc)
	}
}
