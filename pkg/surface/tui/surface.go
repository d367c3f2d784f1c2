// Package tui is a terminal render surface. Widgets mounted by the engine are
// asked one at a time through a PromptDriver (survey by default) and the
// answers are reported back as surface events.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goliatone/go-widgetflow/pkg/echo"
	"github.com/goliatone/go-widgetflow/pkg/streaming"
	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

const skipOption = "(skip)"

// Surface implements surface.Surface for terminals. Mounting never blocks;
// Run or Drain asks mounted widgets in order and feeds answers to a Sink.
type Surface struct {
	mu    sync.Mutex
	nodes []*widgetNode
	wake  chan struct{}

	driver   PromptDriver
	out      io.Writer
	outMu    sync.Mutex
	registry *widgets.Registry
	theme    Theme

	selector     ThemeSelector
	themeName    string
	themeVariant string

	streamed map[string]string
}

var _ surface.Surface = (*Surface)(nil)

// New constructs a terminal surface with defaults (survey driver, stdout).
func New(options ...Option) (*Surface, error) {
	s := &Surface{
		wake:     make(chan struct{}, 1),
		out:      os.Stdout,
		theme:    DefaultTheme(),
		streamed: make(map[string]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	if s.driver == nil {
		s.driver = newSurveyDriver(s.out)
	}
	if s.registry == nil {
		s.registry = widgets.NewRegistry()
	}
	if s.selector != nil {
		selection, err := s.selector.Select(s.themeName, s.themeVariant)
		if err != nil {
			return nil, fmt.Errorf("tui: select theme %q: %w", s.themeName, err)
		}
		s.theme = ThemeFromSelection(selection)
	}
	return s, nil
}

// Theme returns the prefixes in use.
func (s *Surface) Theme() Theme {
	return s.theme
}

func (s *Surface) Mount(_ context.Context, spec surface.MountSpec) (surface.Node, error) {
	node := newWidgetNode(spec, s.registry.Resolve(spec.Type))
	s.mu.Lock()
	s.nodes = append(s.nodes, node)
	s.mu.Unlock()
	return node, nil
}

func (s *Surface) MountControl(_ context.Context, spec surface.ControlSpec) (surface.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctl := &controlNode{spec: spec}
	for i := len(s.nodes) - 1; i >= 0; i-- {
		target := s.nodes[i]
		if target.spec.ID == spec.TargetID && !target.detached {
			target.mu.Lock()
			target.control = ctl
			target.mu.Unlock()
			return ctl, nil
		}
	}
	return nil, fmt.Errorf("tui: control %q targets unknown widget %q", spec.ID, spec.TargetID)
}

func (s *Surface) Echo(ctx context.Context, msg surface.EchoMessage) error {
	return s.driver.Info(ctx, s.theme.EchoPrefix+msg.Text)
}

func (s *Surface) Detach(_ context.Context, node surface.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch typed := node.(type) {
	case *widgetNode:
		typed.mu.Lock()
		typed.detached = true
		typed.mu.Unlock()
		for i, candidate := range s.nodes {
			if candidate == typed {
				s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
				break
			}
		}
	case *controlNode:
		for _, candidate := range s.nodes {
			candidate.mu.Lock()
			if candidate.control == typed {
				candidate.control = nil
			}
			candidate.mu.Unlock()
		}
	}
}

// ScrollToEnd releases freshly mounted widgets to the prompt loop and wakes
// it. Widgets are held back until then so their controls are attached first.
func (s *Surface) ScrollToEnd(context.Context) {
	s.mu.Lock()
	for _, node := range s.nodes {
		node.release()
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run asks widgets as they are mounted until ctx is done or the user aborts.
func (s *Surface) Run(ctx context.Context, sink surface.Sink) error {
	for {
		if err := s.Drain(ctx, sink); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

// Drain asks every widget still waiting for input and returns once none is
// left.
func (s *Surface) Drain(ctx context.Context, sink surface.Sink) error {
	if sink == nil {
		return errors.New("tui: sink is required")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		node := s.next()
		if node == nil {
			return nil
		}
		ev, emit, err := s.ask(ctx, node)
		if err != nil {
			return err
		}
		node.finish()
		if emit {
			sink.HandleEvent(ctx, ev)
		}
	}
}

// next returns the first widget waiting for input. Confirm widgets wait until
// every other widget was asked.
func (s *Surface) next() *widgetNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	var confirm *widgetNode
	for _, node := range s.nodes {
		if !node.pending() {
			continue
		}
		if node.kind != promptConfirm {
			return node
		}
		if confirm == nil {
			confirm = node
		}
	}
	return confirm
}

// ask prompts for one widget and returns the event to report, if any.
func (s *Surface) ask(ctx context.Context, w *widgetNode) (surface.Event, bool, error) {
	if msg := w.takeError(); msg != "" {
		_ = s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
	}
	message := s.theme.PromptPrefix + w.prompt

	switch w.kind {
	case promptDisplay:
		return s.askDisplay(ctx, w)
	case promptConfirm:
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: s.label(w, "Submit answers?"), Default: true})
		if err != nil || !ok {
			return surface.Event{}, false, err
		}
		return surface.Event{WidgetID: w.ID(), Kind: surface.EventConfirm}, true, nil
	case promptAction:
		label := s.label(w, w.ID())
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: true})
		if err != nil || !ok {
			return surface.Event{}, false, err
		}
		return s.answer(w, map[string]any{echo.KeyValue: label}), true, nil
	case promptSelect:
		return s.askSelect(ctx, w, message)
	case promptMulti:
		return s.askMulti(ctx, w, message)
	case promptNumber:
		return s.askNumber(ctx, w, message)
	case promptTextArea:
		text, err := s.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: w.defaultText()})
		if err != nil {
			return surface.Event{}, false, err
		}
		return s.freeText(ctx, w, text)
	default:
		text, err := s.driver.Input(ctx, InputConfig{Message: message, Default: w.defaultText()})
		if err != nil {
			return surface.Event{}, false, err
		}
		return s.freeText(ctx, w, text)
	}
}

func (s *Surface) askDisplay(ctx context.Context, w *widgetNode) (surface.Event, bool, error) {
	if err := s.driver.Info(ctx, s.theme.InfoPrefix+w.prompt); err != nil {
		return surface.Event{}, false, err
	}
	ctl := w.currentControl()
	if ctl == nil || ctl.spec.Kind != surface.ControlNext {
		return surface.Event{}, false, nil
	}
	ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: ctl.spec.Label, Default: true})
	if err != nil || !ok {
		return surface.Event{}, false, err
	}
	return surface.Event{WidgetID: ctl.ID(), Kind: surface.EventActivate}, true, nil
}

func (s *Surface) askSelect(ctx context.Context, w *widgetNode, message string) (surface.Event, bool, error) {
	options := append([]string(nil), w.options...)
	if w.skippable {
		options = append(options, skipOption)
	}
	defaultIdx := -1
	if picked := w.preselected(); len(picked) > 0 {
		defaultIdx = picked[0]
	}

	for {
		idx, err := s.driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: defaultIdx})
		if err != nil {
			return surface.Event{}, false, err
		}
		if idx < 0 || idx >= len(options) {
			_ = s.driver.Info(ctx, s.theme.ErrorPrefix+"Invalid selection")
			continue
		}
		if options[idx] == skipOption {
			return s.skip(w), true, nil
		}
		return s.answer(w, map[string]any{echo.KeySelected: options[idx]}), true, nil
	}
}

func (s *Surface) askMulti(ctx context.Context, w *widgetNode, message string) (surface.Event, bool, error) {
	defaults := w.preselected()
	for {
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: w.options, Defaults: defaults})
		if err != nil {
			return surface.Event{}, false, err
		}
		if len(indices) == 0 {
			if w.skippable {
				return s.skip(w), true, nil
			}
			if w.required {
				_ = s.driver.Info(ctx, s.theme.ErrorPrefix+requiredMessage)
				continue
			}
		}
		return s.answer(w, map[string]any{echo.KeySelected: w.labels(indices)}), true, nil
	}
}

func (s *Surface) askNumber(ctx context.Context, w *widgetNode, message string) (surface.Event, bool, error) {
	for {
		raw, err := s.driver.Input(ctx, InputConfig{Message: message, Default: w.defaultText()})
		if err != nil {
			return surface.Event{}, false, err
		}
		if strings.TrimSpace(raw) == "" {
			if w.skippable {
				return s.skip(w), true, nil
			}
			if w.required {
				_ = s.driver.Info(ctx, s.theme.ErrorPrefix+requiredMessage)
				continue
			}
			return surface.Event{}, false, nil
		}
		n, err := w.checkNumber(raw)
		if err != nil {
			_ = s.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %v", s.theme.ErrorPrefix, w.prompt, err))
			continue
		}
		return s.answer(w, map[string]any{echo.KeyValue: n}), true, nil
	}
}

func (s *Surface) freeText(ctx context.Context, w *widgetNode, text string) (surface.Event, bool, error) {
	if strings.TrimSpace(text) != "" {
		return s.answer(w, map[string]any{w.key: text}), true, nil
	}
	if w.skippable {
		return s.skip(w), true, nil
	}
	if w.required {
		_ = s.driver.Info(ctx, s.theme.ErrorPrefix+requiredMessage)
		return s.ask(ctx, w)
	}
	return surface.Event{}, false, nil
}

// answer records the response on the widget and reports it.
func (s *Surface) answer(w *widgetNode, resp map[string]any) surface.Event {
	w.record(resp)
	return surface.Event{WidgetID: w.ID(), Kind: surface.EventResponse, Payload: cloneMap(resp)}
}

// skip activates the widget's skip control when it has one.
func (s *Surface) skip(w *widgetNode) surface.Event {
	w.record(map[string]any{echo.KeySkipped: true})
	if ctl := w.currentControl(); ctl != nil && ctl.spec.Kind == surface.ControlSkip {
		return surface.Event{WidgetID: ctl.ID(), Kind: surface.EventActivate}
	}
	return surface.Event{WidgetID: w.ID(), Kind: surface.EventSkip}
}

func (s *Surface) label(w *widgetNode, fallback string) string {
	if w.prompt != "" && w.prompt != w.ID() {
		return s.theme.PromptPrefix + w.prompt
	}
	return s.theme.PromptPrefix + fallback
}

func (w *widgetNode) currentControl() *controlNode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.control
}

// StreamObserver prints assistant text as it streams in. Only the new
// suffix of each turn is written; a completed turn ends the line.
func (s *Surface) StreamObserver() streaming.Observer {
	return func(turn streaming.Turn) {
		s.outMu.Lock()
		defer s.outMu.Unlock()

		printed, seen := s.streamed[turn.MessageID]
		switch {
		case !seen:
			fmt.Fprint(s.out, s.theme.AssistantPrefix+turn.Content)
		case strings.HasPrefix(turn.Content, printed):
			fmt.Fprint(s.out, turn.Content[len(printed):])
		default:
			fmt.Fprint(s.out, "\n"+s.theme.AssistantPrefix+turn.Content)
		}
		s.streamed[turn.MessageID] = turn.Content

		if turn.Status == streaming.StatusComplete {
			fmt.Fprintln(s.out)
			delete(s.streamed, turn.MessageID)
		}
	}
}
