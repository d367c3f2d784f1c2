package widgets

import (
	"fmt"
	"strings"
)

// Category groups widget types by how the engine wires their events.
type Category int

const (
	// CategoryInput widgets collect a value from the user.
	CategoryInput Category = iota
	// CategoryDisplay widgets only present content and never produce a
	// response of their own.
	CategoryDisplay
	// CategoryInteractive widgets collect a value through richer
	// manipulation (drag and drop, hotspots).
	CategoryInteractive
	// CategoryAction widgets are buttons, including the confirm action.
	CategoryAction
	// CategoryFeedback widgets collect ratings about the conversation itself.
	CategoryFeedback
	// CategoryEmbedded widgets host third-party content.
	CategoryEmbedded
)

var categoryNames = [...]string{
	CategoryInput:       "input",
	CategoryDisplay:     "display",
	CategoryInteractive: "interactive",
	CategoryAction:      "action",
	CategoryFeedback:    "feedback",
	CategoryEmbedded:    "embedded",
}

// String returns the lower-case category name.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryNames)
}

// ParseCategory maps a category name to its value. Unknown names are an error
// rather than a silent fallback so typos in registry files surface early.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for idx, candidate := range categoryNames {
		if candidate == trimmed {
			return Category(idx), nil
		}
	}
	return CategoryInput, fmt.Errorf("widgets: unknown category %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("widgets: invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
