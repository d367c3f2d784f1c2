package tui

import (
	theme "github.com/goliatone/go-theme"
)

// Token names read from a theme manifest. Variant tokens override manifest
// tokens.
const (
	TokenPromptPrefix    = "tui.prompt_prefix"
	TokenInfoPrefix      = "tui.info_prefix"
	TokenErrorPrefix     = "tui.error_prefix"
	TokenEchoPrefix      = "tui.echo_prefix"
	TokenAssistantPrefix = "tui.assistant_prefix"
)

// Theme captures the prefixes applied to terminal output. Keep minimal to
// avoid coupling the surface to ANSI specifics.
type Theme struct {
	PromptPrefix    string
	InfoPrefix      string
	ErrorPrefix     string
	EchoPrefix      string
	AssistantPrefix string
}

// DefaultTheme is used when no theme is configured.
func DefaultTheme() Theme {
	return Theme{
		ErrorPrefix:     "! ",
		EchoPrefix:      "> ",
		AssistantPrefix: "assistant: ",
	}
}

// ThemeSelector resolves a theme selection, as go-theme selectors do.
type ThemeSelector interface {
	Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error)
}

// ThemeFromSelection starts from DefaultTheme and applies the selection's
// tokens.
func ThemeFromSelection(selection *theme.Selection) Theme {
	out := DefaultTheme()
	if selection == nil || selection.Manifest == nil {
		return out
	}

	tokens := make(map[string]string, len(selection.Manifest.Tokens))
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}

	apply := func(dst *string, key string) {
		if value, ok := tokens[key]; ok {
			*dst = value
		}
	}
	apply(&out.PromptPrefix, TokenPromptPrefix)
	apply(&out.InfoPrefix, TokenInfoPrefix)
	apply(&out.ErrorPrefix, TokenErrorPrefix)
	apply(&out.EchoPrefix, TokenEchoPrefix)
	apply(&out.AssistantPrefix, TokenAssistantPrefix)
	return out
}
