package dashboard

import (
	"sync"

	"go.uber.org/zap"
)

type widgetEntry struct {
	ref      WidgetRef
	handle   EmbedHandle
	embedded bool
	rendered bool
}

// Registry owns the embed handle of every mounted widget along with its
// lifecycle flags. A handle is registered once per id and never replaced
// while the id stays mounted.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*widgetEntry
	order   []string
	early   map[string]struct{}
	logger  *zap.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		entries: map[string]*widgetEntry{},
		early:   map[string]struct{}{},
		logger:  logger,
	}
}

// Register stores the handle for ref. A second registration for an id that
// already has a live handle is skipped and reported as false. A rendered
// event recorded before the handle arrived is applied here.
func (r *Registry) Register(ref WidgetRef, handle EmbedHandle) bool {
	if ref.IsZero() || handle == nil {
		return false
	}
	id := ref.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[id]; ok && existing.handle != nil {
		r.logger.Debug("skipped duplicate widget registration", zap.String("widget_id", id))
		return false
	}
	_, rendered := r.early[id]
	delete(r.early, id)
	r.entries[id] = &widgetEntry{ref: ref, handle: handle, embedded: true, rendered: rendered}
	r.order = append(r.order, id)
	return true
}

// Get returns the handle registered for id.
func (r *Registry) Get(id string) (EmbedHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok || entry.handle == nil {
		return nil, false
	}
	return entry.handle, true
}

// Has reports whether id has a live handle.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

type registeredHandle struct {
	id     string
	handle EmbedHandle
}

// targets returns the registered handles in registration order, skipping
// except when it is non-empty.
func (r *Registry) targets(except string) []registeredHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]registeredHandle, 0, len(r.order))
	for _, id := range r.order {
		if except != "" && id == except {
			continue
		}
		entry := r.entries[id]
		if entry == nil || entry.handle == nil {
			continue
		}
		out = append(out, registeredHandle{id: id, handle: entry.handle})
	}
	return out
}

// ForEachExcept applies fn to every registered handle other than id. fn runs
// outside the registry lock.
func (r *Registry) ForEachExcept(id string, fn func(id string, handle EmbedHandle)) {
	for _, t := range r.targets(id) {
		fn(t.id, t.handle)
	}
}

// ForEach applies fn to every registered handle.
func (r *Registry) ForEach(fn func(id string, handle EmbedHandle)) {
	r.ForEachExcept("", fn)
}

// MarkRendered flips the rendered flag for id. It returns true only on the
// call that changed the flag. Events for ids without a handle yet are held
// until Register.
func (r *Registry) MarkRendered(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		r.logger.Debug("rendered event before registration", zap.String("widget_id", id))
		r.early[id] = struct{}{}
		return false
	}
	if entry.rendered {
		return false
	}
	entry.rendered = true
	return true
}

// Rendered reports the rendered flag for id.
func (r *Registry) Rendered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return ok && entry.rendered
}

// Embedded reports the embedded flag for id.
func (r *Registry) Embedded(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return ok && entry.embedded
}

// Remove drops id and returns its handle so the caller can release it.
func (r *Registry) Remove(id string) (EmbedHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		delete(r.early, id)
		return nil, false
	}
	delete(r.early, id)
	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return entry.handle, true
}

// Reset drops every entry and returns the released handles.
func (r *Registry) Reset() []EmbedHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := make([]EmbedHandle, 0, len(r.entries))
	for _, id := range r.order {
		if entry := r.entries[id]; entry != nil && entry.handle != nil {
			handles = append(handles, entry.handle)
		}
	}
	r.entries = map[string]*widgetEntry{}
	r.early = map[string]struct{}{}
	r.order = nil
	return handles
}

// IDs returns registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered widgets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
