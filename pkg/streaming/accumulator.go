// Package streaming accumulates incrementally delivered assistant text into a
// single growing turn and finalizes it.
package streaming

import (
	"strings"
	"sync"
)

// Status is the lifecycle state of a streaming turn.
type Status int

const (
	StatusIdle Status = iota
	StatusStreaming
	StatusToolCalling
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusToolCalling:
		return "tool-calling"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ToolCall is tool invocation metadata streamed alongside assistant text.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Turn is a snapshot of one assistant turn.
type Turn struct {
	MessageID string
	Content   string
	Status    Status
	ToolCalls []ToolCall
}

// Observer is notified with a snapshot whenever the surfaced turn changes.
type Observer func(Turn)

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithObserver registers the output surface notified on every change.
func WithObserver(fn Observer) Option {
	return func(a *Accumulator) {
		a.observer = fn
	}
}

type openTurn struct {
	messageID string
	buf       strings.Builder
	status    Status
	toolCalls []ToolCall
}

// Accumulator holds at most one open turn at a time.
type Accumulator struct {
	mu       sync.Mutex
	open     *openTurn
	observer Observer
}

// New constructs an empty accumulator.
func New(options ...Option) *Accumulator {
	a := &Accumulator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// Append concatenates chunk onto the buffer for messageID, opening the turn
// when needed. A chunk for a different message while another turn is open
// finalizes the open turn with its accumulated buffer first.
func (a *Accumulator) Append(messageID, chunk string) Turn {
	a.mu.Lock()
	var notify []Turn
	if closed, ok := a.rotateLocked(messageID); ok {
		notify = append(notify, closed)
	}
	turn := a.open
	turn.buf.WriteString(chunk)
	if turn.status != StatusStreaming {
		turn.status = StatusStreaming
	}
	snap := turn.snapshot()
	notify = append(notify, snap)
	a.mu.Unlock()

	a.notify(notify...)
	return snap
}

// AppendToolCall records tool-call metadata on the open turn for messageID
// and marks it as tool-calling.
func (a *Accumulator) AppendToolCall(messageID string, call ToolCall) Turn {
	a.mu.Lock()
	var notify []Turn
	if closed, ok := a.rotateLocked(messageID); ok {
		notify = append(notify, closed)
	}
	turn := a.open
	turn.toolCalls = append(turn.toolCalls, call)
	turn.status = StatusToolCalling
	snap := turn.snapshot()
	notify = append(notify, snap)
	a.mu.Unlock()

	a.notify(notify...)
	return snap
}

// Finalize completes the turn for messageID. The surfaced content is final
// when supplied, otherwise the accumulated buffer, otherwise empty. The buffer
// is dropped, so a second call without an intervening Append surfaces only
// the explicit content, if any.
func (a *Accumulator) Finalize(messageID string, final *string) Turn {
	a.mu.Lock()
	result := Turn{MessageID: messageID, Status: StatusComplete}
	if a.open != nil && a.open.messageID == messageID {
		result.Content = a.open.buf.String()
		result.ToolCalls = cloneToolCalls(a.open.toolCalls)
		a.open = nil
	}
	if final != nil {
		result.Content = *final
	}
	a.mu.Unlock()

	a.notify(result)
	return result
}

// Current returns the open turn, if any.
func (a *Accumulator) Current() (Turn, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.open == nil {
		return Turn{}, false
	}
	return a.open.snapshot(), true
}

// Reset drops the open turn without surfacing it.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.open = nil
	a.mu.Unlock()
}

// rotateLocked makes sure the open turn belongs to messageID. When a
// different turn was open it is completed and returned.
func (a *Accumulator) rotateLocked(messageID string) (Turn, bool) {
	if a.open != nil && a.open.messageID == messageID {
		return Turn{}, false
	}
	var (
		closed Turn
		had    bool
	)
	if a.open != nil {
		closed = a.open.snapshot()
		closed.Status = StatusComplete
		had = true
	}
	a.open = &openTurn{messageID: messageID, status: StatusIdle}
	return closed, had
}

func (a *Accumulator) notify(turns ...Turn) {
	if a.observer == nil {
		return
	}
	for _, turn := range turns {
		a.observer(turn)
	}
}

func (t *openTurn) snapshot() Turn {
	return Turn{
		MessageID: t.messageID,
		Content:   t.buf.String(),
		Status:    t.status,
		ToolCalls: cloneToolCalls(t.toolCalls),
	}
}

func cloneToolCalls(calls []ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	return append([]ToolCall(nil), calls...)
}
