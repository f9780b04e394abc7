package dashboard

import (
	"math/rand/v2"
	"sync"
)

// Picker draws one value from a set. Implementations must pick uniformly so
// normalization stays unbiased; tests substitute deterministic pickers.
type Picker interface {
	Pick(set []string) string
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(set []string) string

// Pick calls f.
func (f PickerFunc) Pick(set []string) string { return f(set) }

// RandomPicker picks uniformly using math/rand/v2.
type RandomPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomPicker uses the runtime's global generator.
func NewRandomPicker() *RandomPicker {
	return &RandomPicker{}
}

// NewSeededPicker returns a reproducible picker.
func NewSeededPicker(seed uint64) *RandomPicker {
	return &RandomPicker{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns a uniformly drawn member of set, or "" when set is empty.
func (p *RandomPicker) Pick(set []string) string {
	if len(set) == 0 {
		return ""
	}
	if p == nil || p.rnd == nil {
		return set[rand.IntN(len(set))]
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return set[p.rnd.IntN(len(set))]
}

// NormalizerConfig holds the static lookup tables.
type NormalizerConfig struct {
	Aliases   map[string]string `json:"aliases" yaml:"aliases"`
	Ambiguous []string          `json:"ambiguous" yaml:"ambiguous"`
	Fallback  []string          `json:"fallback" yaml:"fallback"`
}

// Normalizer maps raw selected values to canonical dimension values.
type Normalizer struct {
	aliases   map[string]string
	ambiguous map[string]struct{}
	fallback  []string
	picker    Picker
}

// NewNormalizer copies cfg so later edits to the config do not leak in.
func NewNormalizer(cfg NormalizerConfig, picker Picker) *Normalizer {
	if picker == nil {
		picker = NewRandomPicker()
	}
	n := &Normalizer{
		aliases:   make(map[string]string, len(cfg.Aliases)),
		ambiguous: make(map[string]struct{}, len(cfg.Ambiguous)),
		fallback:  append([]string(nil), cfg.Fallback...),
		picker:    picker,
	}
	for k, v := range cfg.Aliases {
		n.aliases[k] = v
	}
	for _, v := range cfg.Ambiguous {
		n.ambiguous[v] = struct{}{}
	}
	return n
}

// Normalize resolves aliases first, then replaces ambiguous values with a
// uniform pick from the fallback set. Anything else passes through.
func (n *Normalizer) Normalize(raw string) string {
	if mapped, ok := n.aliases[raw]; ok {
		return mapped
	}
	if _, ok := n.ambiguous[raw]; ok {
		return n.PickFallback()
	}
	return raw
}

// PickFallback draws from the fallback set.
func (n *Normalizer) PickFallback() string {
	return n.picker.Pick(n.fallback)
}

// Fallback returns a copy of the fallback set.
func (n *Normalizer) Fallback() []string {
	return append([]string(nil), n.fallback...)
}
