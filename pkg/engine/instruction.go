package engine

import (
	"encoding/json"
	"strings"
)

// Instruction asks the engine to render one widget. Only WidgetType and an id
// (WidgetID, falling back to ContentID) are required.
type Instruction struct {
	WidgetType       string         `json:"widgetType" yaml:"widgetType"`
	WidgetID         string         `json:"widgetId,omitempty" yaml:"widgetId"`
	ContentID        string         `json:"contentId,omitempty" yaml:"contentId"`
	ItemID           string         `json:"itemId,omitempty" yaml:"itemId"`
	Stem             string         `json:"stem,omitempty" yaml:"stem"`
	Options          []any          `json:"options,omitempty" yaml:"options"`
	Required         bool           `json:"required,omitempty" yaml:"required"`
	Skippable        bool           `json:"skippable,omitempty" yaml:"skippable"`
	InitialValue     any            `json:"initialValue,omitempty" yaml:"initialValue"`
	WidgetConfig     map[string]any `json:"widgetConfig,omitempty" yaml:"widgetConfig"`
	ShowUserResponse *bool          `json:"showUserResponse,omitempty" yaml:"showUserResponse"`
	// RequireConfirmation, when present, sets the confirmation mode of the
	// instruction's item.
	RequireConfirmation *bool `json:"requireConfirmation,omitempty" yaml:"requireConfirmation"`
}

// ID returns WidgetID, or ContentID when WidgetID is empty.
func (in Instruction) ID() string {
	if id := strings.TrimSpace(in.WidgetID); id != "" {
		return id
	}
	return strings.TrimSpace(in.ContentID)
}

// ShowsEcho reports whether the eventual response should be echoed. Defaults
// to true.
func (in Instruction) ShowsEcho() bool {
	return in.ShowUserResponse == nil || *in.ShowUserResponse
}

// DecodeInstruction parses a JSON render instruction.
func DecodeInstruction(data []byte) (Instruction, error) {
	var in Instruction
	if err := json.Unmarshal(data, &in); err != nil {
		return Instruction{}, err
	}
	return in, nil
}
