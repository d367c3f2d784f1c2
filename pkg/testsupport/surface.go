package testsupport

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-widgetflow/pkg/surface"
)

// NodeFactory builds the node returned for a mounted widget.
type NodeFactory func(spec surface.MountSpec) surface.Node

// Surface records mounts, controls, echoes and detaches. Widgets are built by
// Factory, defaulting to a *Widget with no value.
type Surface struct {
	mu       sync.Mutex
	Factory  NodeFactory
	MountErr error

	mounts   []surface.MountSpec
	controls []surface.ControlSpec
	echoes   []surface.EchoMessage
	detached []string
	live     map[string]surface.Node
	order    []string
	scrolls  int
}

// NewSurface returns an empty recording surface.
func NewSurface() *Surface {
	return &Surface{live: make(map[string]surface.Node)}
}

var _ surface.Surface = (*Surface)(nil)

func (s *Surface) Mount(_ context.Context, spec surface.MountSpec) (surface.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MountErr != nil {
		return nil, s.MountErr
	}
	s.mounts = append(s.mounts, spec)

	var node surface.Node
	if s.Factory != nil {
		node = s.Factory(spec)
	}
	if node == nil {
		node = NewWidget(spec.ID)
	}
	s.attach(spec.ID, node)
	return node, nil
}

func (s *Surface) MountControl(_ context.Context, spec surface.ControlSpec) (surface.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = append(s.controls, spec)
	node := &ControlNode{Spec: spec}
	s.attach(spec.ID, node)
	return node, nil
}

func (s *Surface) Echo(_ context.Context, msg surface.EchoMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echoes = append(s.echoes, msg)
	return nil
}

func (s *Surface) Detach(_ context.Context, node surface.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node == nil {
		return
	}
	id := node.ID()
	s.detached = append(s.detached, id)
	if current, ok := s.live[id]; ok && current == node {
		delete(s.live, id)
		for idx, candidate := range s.order {
			if candidate == id {
				s.order = append(s.order[:idx], s.order[idx+1:]...)
				break
			}
		}
	}
}

func (s *Surface) ScrollToEnd(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolls++
}

func (s *Surface) attach(id string, node surface.Node) {
	if _, exists := s.live[id]; !exists {
		s.order = append(s.order, id)
	}
	s.live[id] = node
}

// Mounts returns every widget mount in order.
func (s *Surface) Mounts() []surface.MountSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]surface.MountSpec(nil), s.mounts...)
}

// ControlSpecs returns every control mount in order.
func (s *Surface) ControlSpecs() []surface.ControlSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]surface.ControlSpec(nil), s.controls...)
}

// Echoes returns the echo bubbles shown so far.
func (s *Surface) Echoes() []surface.EchoMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]surface.EchoMessage(nil), s.echoes...)
}

// Detached returns the ids of detached nodes in order.
func (s *Surface) Detached() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.detached...)
}

// Live returns the ids of nodes currently on the surface in mount order.
func (s *Surface) Live() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Node returns the live node for id.
func (s *Surface) Node(id string) (surface.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.live[id]
	return node, ok
}

// Widget returns the live *Widget for id or fails the lookup.
func (s *Surface) Widget(id string) (*Widget, error) {
	node, ok := s.Node(id)
	if !ok {
		return nil, fmt.Errorf("testsupport: node %q not mounted", id)
	}
	switch typed := node.(type) {
	case *Widget:
		return typed, nil
	case *ValidatingWidget:
		return typed.Widget, nil
	}
	return nil, fmt.Errorf("testsupport: node %q is %T", id, node)
}

// Scrolls counts ScrollToEnd calls.
func (s *Surface) Scrolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolls
}

// ControlNode is the node returned for auxiliary controls.
type ControlNode struct {
	Spec surface.ControlSpec
}

func (c *ControlNode) ID() string { return c.Spec.ID }
