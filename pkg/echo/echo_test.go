package echo

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		resp map[string]any
		want string
	}{
		{name: "selected list", resp: map[string]any{"selected": []any{"Red", "Blue"}}, want: "Red, Blue"},
		{name: "selected strings", resp: map[string]any{"selected": []string{"A"}}, want: "A"},
		{name: "selected scalar", resp: map[string]any{"selected": "Only"}, want: "Only"},
		{name: "text", resp: map[string]any{"text": "hello"}, want: "hello"},
		{name: "code", resp: map[string]any{"code": "fmt.Println()"}, want: "fmt.Println()"},
		{name: "value number", resp: map[string]any{"value": 42}, want: "42"},
		{name: "value object", resp: map[string]any{"value": map[string]any{"x": 1}}, want: `{"x":1}`},
		{name: "selected wins over text", resp: map[string]any{"selected": []any{"A"}, "text": "ignored"}, want: "A"},
		{name: "raw fallback", resp: map[string]any{"files": []any{"a.png"}}, want: `{"files":["a.png"]}`},
		{name: "empty", resp: nil, want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.resp); got != tc.want {
				t.Fatalf("Text: want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatter_CombinesAndSkips(t *testing.T) {
	f := MustFormatter()

	got, err := f.Format(
		Entry{WidgetID: "a", Response: map[string]any{"selected": []any{"Yes"}}},
		Entry{WidgetID: "b", Response: map[string]any{"skipped": true}},
		Entry{WidgetID: "c", Response: map[string]any{"text": "<b>bold</b> & plain"}},
	)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if want := "Yes\n<b>bold</b> & plain"; got != want {
		t.Fatalf("combined echo: want %q, got %q", want, got)
	}
}

func TestFormatter_OnlySkipsYieldsEmpty(t *testing.T) {
	got, err := MustFormatter().Format(Entry{WidgetID: "a", Response: map[string]any{"skipped": true}})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty echo, got %q", got)
	}
}

func TestFormatter_CustomTemplate(t *testing.T) {
	f, err := NewFormatter(WithTemplate("{% for e in entries %}[{{ e.widget_id }}] {{ e.text|safe }};{% endfor %}"))
	if err != nil {
		t.Fatalf("new formatter: %v", err)
	}
	got, err := f.Format(
		Entry{WidgetID: "q1", Response: map[string]any{"value": 3}},
		Entry{WidgetID: "q2", Response: map[string]any{"text": "ok"}},
	)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if want := "[q1] 3;[q2] ok;"; got != want {
		t.Fatalf("custom template: want %q, got %q", want, got)
	}
}

func TestFormatter_KeepsMarkupInAnswers(t *testing.T) {
	cases := []struct {
		name string
		resp map[string]any
		want string
	}{
		{name: "code markup", resp: map[string]any{"code": "<div>hi</div>"}, want: "<div>hi</div>"},
		{name: "lone tag", resp: map[string]any{"code": "<br/>"}, want: "<br/>"},
		{name: "generics", resp: map[string]any{"text": "List<String> x"}, want: "List<String> x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MustFormatter().Format(Entry{WidgetID: "w", WidgetType: "code-editor", Response: tc.resp})
			if err != nil {
				t.Fatalf("format: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatter_EscapingTemplate(t *testing.T) {
	f, err := NewFormatter(WithTemplate("{{ text }}"))
	if err != nil {
		t.Fatalf("new formatter: %v", err)
	}
	got, err := f.Format(Entry{WidgetID: "w", Response: map[string]any{"code": "<br/>"}})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if want := "&lt;br/&gt;"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestFormatter_GlobalDataAndFuncs(t *testing.T) {
	f, err := NewFormatter(
		WithTemplate("{{ prefix }}{{ shout(text) }}"),
		WithGlobalData(map[string]any{"prefix": "you said: ", "text": "ignored"}),
		WithTemplateFunc(map[string]any{"shout": func(s string) string { return strings.ToUpper(s) }}),
	)
	if err != nil {
		t.Fatalf("new formatter: %v", err)
	}
	got, err := f.Format(Entry{WidgetID: "w", Response: map[string]any{"text": "ok"}})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if want := "you said: OK"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}

	if _, err := NewFormatter(WithTemplateFunc(map[string]any{"bad": 42})); err == nil {
		t.Fatalf("expected error for non-function helper")
	}
}

func TestNewFormatter_InvalidTemplate(t *testing.T) {
	if _, err := NewFormatter(WithTemplate("{% for %}")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText("  <script>x()</script>Pick <em>one</em>  "); got != "Pick one" {
		t.Fatalf("PlainText: got %q", got)
	}
}
