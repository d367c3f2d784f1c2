// Package echo turns widget responses into the read-only "echo" text shown
// back to the user after a submission.
package echo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Well-known response keys.
const (
	KeySelected     = "selected"
	KeyText         = "text"
	KeyCode         = "code"
	KeyValue        = "value"
	KeySkipped      = "skipped"
	KeyAcknowledged = "acknowledged"
)

// IsSkip reports whether a response is a skip marker.
func IsSkip(resp map[string]any) bool {
	skipped, _ := resp[KeySkipped].(bool)
	return skipped
}

// Text extracts a human-readable string from a response. Fields are consulted
// in order: selected (lists joined with commas), text, code, value; anything
// else falls back to a JSON serialisation of the whole response.
func Text(resp map[string]any) string {
	if len(resp) == 0 {
		return ""
	}
	if selected, ok := resp[KeySelected]; ok && selected != nil {
		return joinSelected(selected)
	}
	if text, ok := resp[KeyText].(string); ok {
		return text
	}
	if code, ok := resp[KeyCode].(string); ok {
		return code
	}
	if value, ok := resp[KeyValue]; ok && value != nil {
		return stringify(value)
	}
	return raw(resp)
}

func joinSelected(selected any) string {
	switch typed := selected.(type) {
	case []string:
		return strings.Join(typed, ", ")
	case []any:
		parts := make([]string, 0, len(typed))
		for _, entry := range typed {
			parts = append(parts, stringify(entry))
		}
		return strings.Join(parts, ", ")
	default:
		return stringify(typed)
	}
}

func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	case map[string]any, []any:
		return raw(typed)
	default:
		return fmt.Sprint(typed)
	}
}

func raw(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}
