package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	widgetflow "github.com/goliatone/go-widgetflow"
	"github.com/goliatone/go-widgetflow/pkg/surface/tui"
)

type scriptedDriver struct {
	inputs  []string
	selects []int
	confirm []bool
}

func (d *scriptedDriver) Input(context.Context, tui.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	if len(d.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	v := d.confirm[0]
	d.confirm = d.confirm[1:]
	return v, nil
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptedDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return nil, errors.New("no multiselect scripted")
}

func (d *scriptedDriver) TextArea(context.Context, tui.TextAreaConfig) (string, error) {
	return "", errors.New("no textarea scripted")
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func TestReplay_ConfirmationScript(t *testing.T) {
	var sent, screen bytes.Buffer
	driver := &scriptedDriver{inputs: []string{"Ada"}, selects: []int{0}, confirm: []bool{true}}
	options := []widgetflow.Option{
		widgetflow.WithSurfaceOptions(tui.WithPromptDriver(driver), tui.WithOutput(&screen)),
	}

	cfg := config{script: "testdata/onboarding.yaml", confirm: true}
	if err := replay(context.Background(), cfg, &sent, options); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if got := screen.String(); got != "assistant: Welcome! A couple of questions first.\n" {
		t.Fatalf("unexpected stream output %q", got)
	}
	want := `{"type":"batch_response","itemId":"item-1","responses":{"name":{"widgetType":"text-input","value":{"text":"Ada"}},"role":{"widgetType":"single-choice","value":{"selected":"Developer"}}}}`
	if got := strings.TrimSpace(sent.String()); got != want {
		t.Fatalf("unexpected outbound\n got: %s\nwant: %s", got, want)
	}
}

func TestReplay_ImmediateScript(t *testing.T) {
	var sent bytes.Buffer
	driver := &scriptedDriver{inputs: []string{"Ada"}, selects: []int{1}, confirm: []bool{true}}
	options := []widgetflow.Option{
		widgetflow.WithSurfaceOptions(tui.WithPromptDriver(driver), tui.WithOutput(&bytes.Buffer{})),
	}

	if err := replay(context.Background(), config{script: "testdata/onboarding.yaml"}, &sent, options); err != nil {
		t.Fatalf("replay: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sent.String()), "\n")
	want := []string{
		`{"type":"widget_response","itemId":"item-1","widgetId":"name","widgetType":"text-input","response":{"text":"Ada"}}`,
		`{"type":"widget_response","itemId":"item-1","widgetId":"role","widgetType":"single-choice","response":{"selected":"Designer"}}`,
	}
	if len(lines) < len(want) {
		t.Fatalf("expected at least %d lines, got %q", len(want), lines)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("line %d\n got: %s\nwant: %s", i, lines[i], line)
		}
	}
}

func TestRun_RequiresExactlyOneSource(t *testing.T) {
	if err := run(context.Background(), config{}); err == nil {
		t.Fatalf("expected error without -url or -script")
	}
	if err := run(context.Background(), config{url: "ws://x", script: "y"}); err == nil {
		t.Fatalf("expected error with both -url and -script")
	}
}

func TestTerminalTheme_DarkVariant(t *testing.T) {
	light := tui.ThemeFromSelection(terminalTheme(""))
	if light.EchoPrefix != "you: " {
		t.Fatalf("unexpected light echo prefix %q", light.EchoPrefix)
	}
	dark := tui.ThemeFromSelection(terminalTheme("dark"))
	if dark.EchoPrefix == light.EchoPrefix {
		t.Fatalf("expected dark variant to override echo prefix")
	}
}
