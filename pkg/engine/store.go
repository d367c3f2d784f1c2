package engine

import (
	"github.com/goliatone/go-widgetflow/pkg/surface"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

// instance is a live widget tracked by the engine.
type instance struct {
	id         string
	itemID     string
	widgetType string
	desc       widgets.Descriptor
	required   bool
	skippable  bool
	node       surface.Node
	wiring     wiring
	control    *control
}

// control is an auxiliary node (skip link, Next button) created by the
// engine for one widget.
type control struct {
	id       string
	targetID string
	kind     surface.ControlKind
	node     surface.Node
}

// instanceStore keeps widgets in render order plus their controls.
type instanceStore struct {
	widgets  map[string]*instance
	order    []string
	controls map[string]*control
}

func newInstanceStore() *instanceStore {
	return &instanceStore{
		widgets:  make(map[string]*instance),
		controls: make(map[string]*control),
	}
}

func (s *instanceStore) add(inst *instance) {
	if _, exists := s.widgets[inst.id]; !exists {
		s.order = append(s.order, inst.id)
	}
	s.widgets[inst.id] = inst
	if inst.control != nil {
		s.controls[inst.control.id] = inst.control
	}
}

func (s *instanceStore) get(id string) (*instance, bool) {
	inst, ok := s.widgets[id]
	return inst, ok
}

func (s *instanceStore) controlFor(id string) (*control, bool) {
	ctl, ok := s.controls[id]
	return ctl, ok
}

func (s *instanceStore) remove(id string) (*instance, bool) {
	inst, ok := s.widgets[id]
	if !ok {
		return nil, false
	}
	delete(s.widgets, id)
	for idx, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:idx], s.order[idx+1:]...)
			break
		}
	}
	if inst.control != nil {
		delete(s.controls, inst.control.id)
	}
	return inst, true
}

// list returns widgets in render order.
func (s *instanceStore) list() []*instance {
	out := make([]*instance, 0, len(s.order))
	for _, id := range s.order {
		if inst, ok := s.widgets[id]; ok {
			out = append(out, inst)
		}
	}
	return out
}

func (s *instanceStore) len() int {
	return len(s.widgets)
}

func (s *instanceStore) reset() {
	s.widgets = make(map[string]*instance)
	s.order = nil
	s.controls = make(map[string]*control)
}

// pendingStore holds at most one response per widget; later writes win.
type pendingStore struct {
	responses map[string]Response
}

func newPendingStore() *pendingStore {
	return &pendingStore{responses: make(map[string]Response)}
}

func (p *pendingStore) put(id string, resp Response) {
	p.responses[id] = resp
}

func (p *pendingStore) get(id string) (Response, bool) {
	resp, ok := p.responses[id]
	return resp, ok
}

func (p *pendingStore) delete(id string) {
	delete(p.responses, id)
}

func (p *pendingStore) snapshot() map[string]Response {
	out := make(map[string]Response, len(p.responses))
	for id, resp := range p.responses {
		out[id] = cloneResponse(resp)
	}
	return out
}

func (p *pendingStore) reset() {
	p.responses = make(map[string]Response)
}
