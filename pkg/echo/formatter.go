package echo

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultTemplate renders the combined text verbatim. Echo text is the user's
// own answer; surfaces painting HTML should supply an autoescaping template
// such as "{{ text }}".
const DefaultTemplate = "{{ text|safe }}"

var (
	policyOnce  sync.Once
	plainPolicy *bluemonday.Policy
)

// Entry is one response contributing to an echo bubble.
type Entry struct {
	WidgetID   string
	WidgetType string
	Response   map[string]any
}

// Option configures a Formatter.
type Option func(*config)

type config struct {
	template   string
	separator  string
	templateFn map[string]any
	globalData map[string]any
}

// WithTemplate overrides the pongo2 template used to render echo bubbles. The
// template receives text (combined string) and entries (list of widget_id,
// widget_type, text maps).
func WithTemplate(src string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(src) != "" {
			cfg.template = src
		}
	}
}

// WithSeparator overrides the separator placed between entries in the
// combined text. Defaults to a newline.
func WithSeparator(sep string) Option {
	return func(cfg *config) {
		cfg.separator = sep
	}
}

// WithTemplateFunc registers helpers for the template. pongo2 filter
// functions become filters; other funcs are exposed as callables.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds values available to every render. Per-render keys
// (text, entries) win on collision.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Formatter renders echo bubbles.
type Formatter struct {
	tpl       *pongo2.Template
	separator string
	globals   pongo2.Context
}

// NewFormatter compiles the echo template.
func NewFormatter(options ...Option) (*Formatter, error) {
	cfg := &config{
		template:  DefaultTemplate,
		separator: "\n",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	f := &Formatter{separator: cfg.separator, globals: make(pongo2.Context, len(cfg.globalData))}
	for key, value := range cfg.globalData {
		if key != "" {
			f.globals[key] = value
		}
	}
	for name, fn := range cfg.templateFn {
		if err := f.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("echo: register template func %q: %w", name, err)
		}
	}

	tpl, err := pongo2.FromString(cfg.template)
	if err != nil {
		return nil, fmt.Errorf("echo: parse template: %w", err)
	}
	f.tpl = tpl
	return f, nil
}

func (f *Formatter) registerTemplateFunc(name string, fn any) error {
	if name == "" || fn == nil {
		return nil
	}
	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(name) {
			return nil
		}
		return pongo2.RegisterFilter(name, filter)
	}
	if filter, ok := fn.(func(*pongo2.Value, *pongo2.Value) (*pongo2.Value, *pongo2.Error)); ok {
		if pongo2.FilterExists(name) {
			return nil
		}
		return pongo2.RegisterFilter(name, filter)
	}
	if reflect.ValueOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("not a function: %T", fn)
	}
	f.globals[name] = fn
	return nil
}

// MustFormatter panics when the template fails to compile.
func MustFormatter(options ...Option) *Formatter {
	f, err := NewFormatter(options...)
	if err != nil {
		panic(err)
	}
	return f
}

// Format renders the bubble for the supplied entries. Skip markers are left
// out; an empty string means there is nothing to echo.
func (f *Formatter) Format(entries ...Entry) (string, error) {
	if f == nil || f.tpl == nil {
		return "", errors.New("echo: formatter is nil")
	}

	var (
		texts []string
		rows  []map[string]any
	)
	for _, entry := range entries {
		if IsSkip(entry.Response) {
			continue
		}
		text := Text(entry.Response)
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
		rows = append(rows, map[string]any{
			"widget_id":   entry.WidgetID,
			"widget_type": entry.WidgetType,
			"text":        text,
		})
	}
	if len(texts) == 0 {
		return "", nil
	}

	ctx := make(pongo2.Context, len(f.globals)+2)
	ctx.Update(f.globals)
	ctx["text"] = strings.Join(texts, f.separator)
	ctx["entries"] = rows
	out, err := f.tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("echo: execute template: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// PlainText strips markup from server supplied prompt text so it can be
// printed in a terminal. User answers never go through it.
func PlainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := sanitizer().Sanitize(trimmed)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy
}
