package dashboard

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type policySource interface {
	Policy(widgetID string) SelectionPolicy
}

// Interpreter turns dataSelected payloads into filter descriptors and keeps
// the shared slots in step with them.
type Interpreter struct {
	normalizer   *Normalizer
	state        *SharedState
	policies     policySource
	randomTarget Binding
	logger       *zap.Logger
}

// NewInterpreter wires the interpreter. randomTarget is the (table, column)
// used by widgets with PolicyAlwaysRandom.
func NewInterpreter(normalizer *Normalizer, state *SharedState, policies policySource, randomTarget Binding, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		normalizer:   normalizer,
		state:        state,
		policies:     policies,
		randomTarget: randomTarget,
		logger:       logger,
	}
}

// Interpret extracts (table, column, value) from the first data point,
// normalizes the value, updates the mapped slot and returns the descriptor.
// Malformed payloads return false and leave the state untouched.
func (i *Interpreter) Interpret(sourceID string, event SelectionEvent) (FilterDescriptor, bool) {
	target, raw, reason := extractSelection(event)
	if reason != "" {
		i.logger.Warn("dropped malformed selection",
			zap.String("widget_id", sourceID),
			zap.String("reason", reason))
		return FilterDescriptor{}, false
	}

	var desc FilterDescriptor
	if i.policies != nil && i.policies.Policy(sourceID) == PolicyAlwaysRandom {
		desc = FilterDescriptor{
			Table:  i.randomTarget.Table,
			Column: i.randomTarget.Column,
			Value:  i.normalizer.PickFallback(),
		}
	} else {
		desc = FilterDescriptor{
			Table:  target.Table,
			Column: target.Column,
			Value:  i.normalizer.Normalize(raw),
		}
	}

	slot, ok := i.state.SlotFor(desc.Binding())
	if !ok {
		i.logger.Debug("selection target has no shared slot",
			zap.String("widget_id", sourceID),
			zap.String("binding", desc.Binding().String()))
		return desc, true
	}
	if err := i.state.Set(slot, desc.Value, desc.Binding()); err != nil {
		i.logger.Warn("shared slot update rejected",
			zap.String("widget_id", sourceID),
			zap.String("slot", string(slot)),
			zap.Error(err))
	}
	return desc, true
}

func extractSelection(event SelectionEvent) (Target, string, string) {
	if len(event.DataPoints) == 0 {
		return Target{}, "", "no data points"
	}
	identity := event.DataPoints[0].Identity
	if len(identity) == 0 {
		return Target{}, "", "missing identity"
	}
	entry := identity[0]
	if entry.Target == nil || entry.Target.Table == "" || entry.Target.Column == "" {
		return Target{}, "", "missing identity target"
	}
	value, ok := selectionValue(entry.Equals)
	if !ok {
		return Target{}, "", "missing equals value"
	}
	return *entry.Target, value, ""
}

func selectionValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		if strings.TrimSpace(val) == "" {
			return "", false
		}
		return val, true
	case bool:
		return fmt.Sprint(val), true
	case map[string]any, []any:
		return "", false
	default:
		s := CanonicalReportID(val)
		return s, s != ""
	}
}
