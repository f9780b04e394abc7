package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// dynamicPrefix marks persisted ids that belong to user-added reports.
const dynamicPrefix = "dynamic-"

// WidgetKind discriminates built-in visuals from user-added reports.
type WidgetKind int

const (
	WidgetStatic WidgetKind = iota
	WidgetDynamic
)

func (k WidgetKind) String() string {
	switch k {
	case WidgetStatic:
		return "static"
	case WidgetDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// WidgetRef identifies a widget. The kind is fixed when the ref is built and is
// never re-derived from the rendered id.
type WidgetRef struct {
	kind WidgetKind
	key  string
}

// StaticWidget references a built-in visual from the catalog.
func StaticWidget(id string) WidgetRef {
	return WidgetRef{kind: WidgetStatic, key: strings.TrimSpace(id)}
}

// DynamicWidget references a user-added report. Numeric and string report ids
// that print the same collapse to the same ref.
func DynamicWidget(reportID any) WidgetRef {
	return WidgetRef{kind: WidgetDynamic, key: CanonicalReportID(reportID)}
}

// Kind reports whether the widget is static or dynamic.
func (r WidgetRef) Kind() WidgetKind { return r.kind }

// ReportID returns the source report id for dynamic widgets.
func (r WidgetRef) ReportID() string {
	if r.kind != WidgetDynamic {
		return ""
	}
	return r.key
}

// ID renders the stable widget id used by the order list and the registry.
func (r WidgetRef) ID() string {
	if r.kind == WidgetDynamic {
		return dynamicPrefix + r.key
	}
	return r.key
}

// IsZero reports whether the ref carries no identifier.
func (r WidgetRef) IsZero() bool { return r.key == "" }

func (r WidgetRef) String() string { return r.ID() }

// CanonicalReportID renders report identifiers coming from JSON, config, or
// callers so that 42, 42.0, json.Number("42") and "42" compare equal.
func CanonicalReportID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return canonicalNumeric(id.String())
	case ReportKey:
		return string(id)
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case uint32:
		return strconv.FormatUint(uint64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case float32:
		return formatFloat(float64(id))
	case float64:
		return formatFloat(id)
	case fmt.Stringer:
		return strings.TrimSpace(id.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func canonicalNumeric(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return formatFloat(f)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ReportKey is a report identifier that decodes from either a JSON string or a
// JSON number.
type ReportKey string

// UnmarshalJSON accepts "42" and 42 alike.
func (k *ReportKey) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("dashboard: decode report id: %w", err)
	}
	*k = ReportKey(CanonicalReportID(raw))
	return nil
}

// Binding is a (table, column) pair a widget filters by.
type Binding struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

func (b Binding) isZero() bool { return b.Table == "" && b.Column == "" }

func (b Binding) String() string { return b.Table + "." + b.Column }

// SelectionPolicy controls how a widget's clicks are interpreted.
type SelectionPolicy string

const (
	// PolicyLiteral filters on the clicked value.
	PolicyLiteral SelectionPolicy = "literal"
	// PolicyAlwaysRandom ignores the clicked value and picks a random peer
	// category from the fallback set.
	PolicyAlwaysRandom SelectionPolicy = "always_random"
)

// WidgetDefinition describes a visual the dashboard knows how to embed.
type WidgetDefinition struct {
	ID       string          `json:"id" yaml:"id"`
	Title    string          `json:"title" yaml:"title"`
	Type     string          `json:"type" yaml:"type"`
	Bindings []Binding       `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	Policy   SelectionPolicy `json:"policy,omitempty" yaml:"policy,omitempty"`
}
