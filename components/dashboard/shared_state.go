package dashboard

import (
	"fmt"
	"slices"
	"sync"
)

// All is the sentinel meaning a slot applies no filter.
const All = "All"

// Slot names a shared filter dimension.
type Slot string

const (
	SlotCategory Slot = "category"
	SlotSegment  Slot = "segment"
)

// DimensionConfig declares a shared slot, its closed vocabulary, and the
// (table, column) pairs that write to it. Filter is the binding used when the
// slot is applied without a recorded source binding; it defaults to the first
// binding.
type DimensionConfig struct {
	Slot     Slot      `json:"slot" yaml:"slot"`
	Options  []string  `json:"options" yaml:"options"`
	Bindings []Binding `json:"bindings" yaml:"bindings"`
	Filter   Binding   `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// SlotState is the current value of one slot.
type SlotState struct {
	Slot    Slot    `json:"slot"`
	Value   string  `json:"value"`
	Binding Binding `json:"binding"`
}

// SharedFilterState is a point-in-time copy of every slot.
type SharedFilterState struct {
	Slots []SlotState `json:"slots"`
}

// Value returns the slot value, or All when the slot is unknown.
func (s SharedFilterState) Value(slot Slot) string {
	for _, st := range s.Slots {
		if st.Slot == slot {
			return st.Value
		}
	}
	return All
}

// Filters returns one descriptor per concrete slot, in slot order.
func (s SharedFilterState) Filters() []FilterDescriptor {
	var out []FilterDescriptor
	for _, st := range s.Slots {
		if st.Value == All {
			continue
		}
		out = append(out, FilterDescriptor{Table: st.Binding.Table, Column: st.Binding.Column, Value: st.Value})
	}
	return out
}

type dimension struct {
	cfg     DimensionConfig
	options map[string]struct{}
	value   string
	binding Binding
}

// SharedState holds the cross-widget filter slots. Concrete values are
// always members of the slot's option set.
type SharedState struct {
	mu     sync.RWMutex
	dims   []*dimension
	bySlot map[Slot]*dimension
	byPair map[Binding]Slot
}

// NewSharedState builds the slots with every value at All.
func NewSharedState(dims []DimensionConfig) (*SharedState, error) {
	s := &SharedState{
		bySlot: make(map[Slot]*dimension, len(dims)),
		byPair: map[Binding]Slot{},
	}
	for _, cfg := range dims {
		if cfg.Slot == "" {
			return nil, fmt.Errorf("dashboard: dimension slot is required")
		}
		if _, dup := s.bySlot[cfg.Slot]; dup {
			return nil, fmt.Errorf("dashboard: duplicate dimension slot %s", cfg.Slot)
		}
		if cfg.Filter.isZero() && len(cfg.Bindings) > 0 {
			cfg.Filter = cfg.Bindings[0]
		}
		d := &dimension{
			cfg:     cfg,
			options: make(map[string]struct{}, len(cfg.Options)),
			value:   All,
			binding: cfg.Filter,
		}
		for _, opt := range cfg.Options {
			d.options[opt] = struct{}{}
		}
		for _, b := range cfg.Bindings {
			if owner, taken := s.byPair[b]; taken {
				return nil, fmt.Errorf("dashboard: binding %s already mapped to slot %s", b, owner)
			}
			s.byPair[b] = cfg.Slot
		}
		s.dims = append(s.dims, d)
		s.bySlot[cfg.Slot] = d
	}
	return s, nil
}

// SlotFor maps a (table, column) pair to the slot it writes.
func (s *SharedState) SlotFor(b Binding) (Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.byPair[b]
	return slot, ok
}

// Accepts reports whether value may be stored in slot.
func (s *SharedState) Accepts(slot Slot, value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.bySlot[slot]
	if !ok {
		return false
	}
	if value == All {
		return true
	}
	_, member := d.options[value]
	return member
}

// Set stores value in slot, recording the binding that produced it.
func (s *SharedState) Set(slot Slot, value string, b Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.bySlot[slot]
	if !ok {
		return fmt.Errorf("dashboard: unknown slot %s", slot)
	}
	if value == All {
		d.value = All
		d.binding = d.cfg.Filter
		return nil
	}
	if _, member := d.options[value]; !member {
		return fmt.Errorf("dashboard: value %q is not an option of slot %s", value, slot)
	}
	d.value = value
	if b.isZero() {
		b = d.cfg.Filter
	}
	d.binding = b
	return nil
}

// Reset puts the given slots back to All; with no slots it resets all.
func (s *SharedState) Reset(slots ...Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.dims {
		if len(slots) > 0 && !slices.Contains(slots, d.cfg.Slot) {
			continue
		}
		d.value = All
		d.binding = d.cfg.Filter
	}
}

// Snapshot copies the current slot values.
func (s *SharedState) Snapshot() SharedFilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := SharedFilterState{Slots: make([]SlotState, 0, len(s.dims))}
	for _, d := range s.dims {
		out.Slots = append(out.Slots, SlotState{Slot: d.cfg.Slot, Value: d.value, Binding: d.binding})
	}
	return out
}

// Slots lists the configured slots in declaration order.
func (s *SharedState) Slots() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Slot, 0, len(s.dims))
	for _, d := range s.dims {
		out = append(out, d.cfg.Slot)
	}
	return out
}

// slotsForBindings returns the slots written by any of the bindings.
func (s *SharedState) slotsForBindings(bindings []Binding) []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Slot
	for _, b := range bindings {
		if slot, ok := s.byPair[b]; ok && !slices.Contains(out, slot) {
			out = append(out, slot)
		}
	}
	return out
}
