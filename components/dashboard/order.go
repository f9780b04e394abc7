package dashboard

import (
	"slices"
	"sync"
)

// SaveScheduler receives the layout to persist after every order mutation.
type SaveScheduler interface {
	ScheduleSave(doc LayoutDocument)
}

// OrderList is the ordered set of mounted widgets. Ids are unique; the
// position of an id is its grid position.
type OrderList struct {
	mu        sync.RWMutex
	refs      []WidgetRef
	loaded    bool
	scheduler SaveScheduler
}

// NewOrderList builds an empty, not yet loaded list.
func NewOrderList(scheduler SaveScheduler) *OrderList {
	return &OrderList{scheduler: scheduler}
}

// Load replaces the list with refs and marks it loaded. Duplicates keep their
// first position. Loading does not schedule a save.
func (o *OrderList) Load(refs []WidgetRef) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refs = o.refs[:0]
	for _, ref := range refs {
		if ref.IsZero() || indexOf(o.refs, ref.ID()) >= 0 {
			continue
		}
		o.refs = append(o.refs, ref)
	}
	o.loaded = true
}

// Loaded reports whether the persisted order has been applied.
func (o *OrderList) Loaded() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loaded
}

// Reorder moves activeID to the position held by overID, shifting the entries
// in between. It is a no-op when either id is missing or both are equal.
func (o *OrderList) Reorder(activeID, overID string) bool {
	o.mu.Lock()
	if activeID == overID {
		o.mu.Unlock()
		return false
	}
	from := indexOf(o.refs, activeID)
	to := indexOf(o.refs, overID)
	if from < 0 || to < 0 {
		o.mu.Unlock()
		return false
	}
	moved := o.refs[from]
	o.refs = slices.Delete(o.refs, from, from+1)
	o.refs = slices.Insert(o.refs, to, moved)
	doc := o.documentLocked()
	o.mu.Unlock()
	o.schedule(doc)
	return true
}

// Append adds refs at the end, skipping ids already present. It returns the
// refs that were added.
func (o *OrderList) Append(refs ...WidgetRef) []WidgetRef {
	o.mu.Lock()
	var added []WidgetRef
	for _, ref := range refs {
		if ref.IsZero() || indexOf(o.refs, ref.ID()) >= 0 {
			continue
		}
		o.refs = append(o.refs, ref)
		added = append(added, ref)
	}
	if len(added) == 0 {
		o.mu.Unlock()
		return nil
	}
	doc := o.documentLocked()
	o.mu.Unlock()
	o.schedule(doc)
	return added
}

// Remove drops id from the list.
func (o *OrderList) Remove(id string) (WidgetRef, bool) {
	o.mu.Lock()
	idx := indexOf(o.refs, id)
	if idx < 0 {
		o.mu.Unlock()
		return WidgetRef{}, false
	}
	ref := o.refs[idx]
	o.refs = slices.Delete(o.refs, idx, idx+1)
	doc := o.documentLocked()
	o.mu.Unlock()
	o.schedule(doc)
	return ref, true
}

// Contains reports whether id is in the list.
func (o *OrderList) Contains(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return indexOf(o.refs, id) >= 0
}

// Lookup returns the ref stored under id.
func (o *OrderList) Lookup(id string) (WidgetRef, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if idx := indexOf(o.refs, id); idx >= 0 {
		return o.refs[idx], true
	}
	return WidgetRef{}, false
}

// IDs returns the ordered widget ids.
func (o *OrderList) IDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, len(o.refs))
	for i, ref := range o.refs {
		ids[i] = ref.ID()
	}
	return ids
}

// Refs returns a copy of the ordered refs.
func (o *OrderList) Refs() []WidgetRef {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.refs)
}

// Document renders the persisted form of the list.
func (o *OrderList) Document() LayoutDocument {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.documentLocked()
}

func (o *OrderList) documentLocked() LayoutDocument {
	doc := LayoutDocument{
		VisualOrder:            make([]string, 0, len(o.refs)),
		SelectedDynamicReports: []ReportKey{},
	}
	for _, ref := range o.refs {
		doc.VisualOrder = append(doc.VisualOrder, ref.ID())
		if ref.Kind() == WidgetDynamic {
			doc.SelectedDynamicReports = append(doc.SelectedDynamicReports, ReportKey(ref.ReportID()))
		}
	}
	return doc
}

func (o *OrderList) schedule(doc LayoutDocument) {
	if o.scheduler != nil {
		o.scheduler.ScheduleSave(doc)
	}
}

func indexOf(refs []WidgetRef, id string) int {
	return slices.IndexFunc(refs, func(r WidgetRef) bool { return r.ID() == id })
}
