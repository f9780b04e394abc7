package dashboard

import (
	"context"
	"slices"
	"sync"
)

type fakeHandle struct {
	mu        sync.Mutex
	set       [][]FilterDescriptor
	removed   int
	destroyed int
	setErr    error
	removeErr error
	panicOn   bool
	callbacks map[EventKind]func(Event)
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{callbacks: map[EventKind]func(Event){}}
}

func (h *fakeHandle) On(kind EventKind, fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks[kind] = fn
}

func (h *fakeHandle) SetFilters(ctx context.Context, filters []FilterDescriptor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicOn {
		panic("boom")
	}
	h.set = append(h.set, slices.Clone(filters))
	return h.setErr
}

func (h *fakeHandle) RemoveFilters(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed++
	return h.removeErr
}

func (h *fakeHandle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed++
	return nil
}

func (h *fakeHandle) fire(ev Event) {
	h.mu.Lock()
	fn := h.callbacks[ev.Kind]
	h.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (h *fakeHandle) setCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.set)
}

func (h *fakeHandle) lastFilters() []FilterDescriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.set) == 0 {
		return nil
	}
	return h.set[len(h.set)-1]
}

func (h *fakeHandle) removeCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removed
}

func (h *fakeHandle) destroyCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

type fakeEmbedder struct {
	mu      sync.Mutex
	handles map[string]*fakeHandle
	calls   []string
	errs    map[string]error
	configs map[string]EmbedConfig
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		handles: map[string]*fakeHandle{},
		errs:    map[string]error{},
		configs: map[string]EmbedConfig{},
	}
}

func (f *fakeEmbedder) Embed(ctx context.Context, widget WidgetRef, cfg EmbedConfig) (EmbedHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, widget.ID())
	if err := f.errs[widget.ID()]; err != nil {
		return nil, err
	}
	h := newFakeHandle()
	f.handles[widget.ID()] = h
	f.configs[widget.ID()] = cfg
	return h, nil
}

func (f *fakeEmbedder) handle(id string) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[id]
}

func (f *fakeEmbedder) embedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// renderAll fires rendered on every handle created so far.
func (f *fakeEmbedder) renderAll() {
	f.mu.Lock()
	handles := make([]*fakeHandle, 0, len(f.handles))
	for _, h := range f.handles {
		handles = append(handles, h)
	}
	f.mu.Unlock()
	for _, h := range handles {
		h.fire(Event{Kind: EventRendered})
	}
}

type recordingHook struct {
	mu     sync.Mutex
	events []EngineEvent
}

func (r *recordingHook) EngineUpdated(ctx context.Context, event EngineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingHook) ofType(eventType string) []EngineEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EngineEvent
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type fakeLayoutStore struct {
	mu      sync.Mutex
	doc     *LayoutDocument
	loadErr error
	saveErr error
	saved   []LayoutDocument
	tokens  []string
	reqIDs  []string
	loads   int
}

func (s *fakeLayoutStore) LoadLayout(ctx context.Context) (LayoutDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return LayoutDocument{}, s.loadErr
	}
	if s.doc == nil {
		return LayoutDocument{}, ErrLayoutNotFound
	}
	return cloneLayout(*s.doc), nil
}

func (s *fakeLayoutStore) SaveLayout(ctx context.Context, doc LayoutDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, BearerTokenFrom(ctx))
	s.reqIDs = append(s.reqIDs, RequestIDFrom(ctx))
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, cloneLayout(doc))
	return nil
}

func (s *fakeLayoutStore) saves() []LayoutDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.saved)
}

func (s *fakeLayoutStore) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// selectionOf builds a single-point dataSelected payload.
func selectionOf(table, column string, value any) SelectionEvent {
	return SelectionEvent{DataPoints: []DataPoint{{
		Identity: []IdentityEntry{{
			Target: &Target{Table: table, Column: column},
			Equals: value,
		}},
	}}}
}

func fixedPicker(value string) Picker {
	return PickerFunc(func([]string) string { return value })
}
