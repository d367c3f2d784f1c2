package surface

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AttributeStyle selects the naming convention configuration keys are
// translated to at the surface boundary.
type AttributeStyle int

const (
	// StyleKebab renders min_value as min-value.
	StyleKebab AttributeStyle = iota
	// StyleCamel renders min_value as minValue.
	StyleCamel
)

// AttributeName translates an underscore or hyphen separated configuration key
// into the requested style.
func AttributeName(key string, style AttributeStyle) string {
	parts := strings.FieldsFunc(strings.TrimSpace(key), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(parts) == 0 {
		return ""
	}
	switch style {
	case StyleCamel:
		caser := cases.Title(language.Und, cases.NoLower)
		var b strings.Builder
		b.WriteString(strings.ToLower(parts[0]))
		for _, part := range parts[1:] {
			b.WriteString(caser.String(strings.ToLower(part)))
		}
		return b.String()
	default:
		for idx, part := range parts {
			parts[idx] = strings.ToLower(part)
		}
		return strings.Join(parts, "-")
	}
}

// TranslateAttributes returns a copy of attrs with every key translated.
// Later keys win when two source keys translate to the same name.
func TranslateAttributes(attrs map[string]any, style AttributeStyle) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for key, value := range attrs {
		name := AttributeName(key, style)
		if name == "" {
			continue
		}
		out[name] = value
	}
	return out
}

// StringAttr reads a string attribute, returning "" when absent.
func StringAttr(attrs map[string]any, name string) string {
	if attrs == nil {
		return ""
	}
	if value, ok := attrs[name].(string); ok {
		return value
	}
	return ""
}

// BoolAttr reads a boolean attribute, returning false when absent.
func BoolAttr(attrs map[string]any, name string) bool {
	if attrs == nil {
		return false
	}
	value, _ := attrs[name].(bool)
	return value
}
