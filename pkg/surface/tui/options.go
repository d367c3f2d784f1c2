package tui

import (
	"errors"
	"io"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
)

// Option configures the terminal surface.
type Option func(*Surface)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Surface) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutput sets where streamed assistant text is written.
func WithOutput(out io.Writer) Option {
	return func(s *Surface) {
		if out != nil {
			s.out = out
		}
	}
}

// WithRegistry sets the registry used to find each widget's prompt attribute.
func WithRegistry(registry *widgets.Registry) Option {
	return func(s *Surface) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithTheme applies message prefixes directly.
func WithTheme(t Theme) Option {
	return func(s *Surface) {
		s.theme = t
	}
}

// WithThemeSelection derives prefixes from a resolved go-theme selection.
func WithThemeSelection(selection *theme.Selection) Option {
	return func(s *Surface) {
		if selection != nil {
			s.theme = ThemeFromSelection(selection)
		}
	}
}

// WithThemeSelector resolves name/variant through selector when the surface
// is built.
func WithThemeSelector(selector ThemeSelector, name, variant string) Option {
	return func(s *Surface) {
		s.selector = selector
		s.themeName = name
		s.themeVariant = variant
	}
}
