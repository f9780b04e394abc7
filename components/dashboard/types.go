package dashboard

import (
	"context"
	"errors"
	"strings"
)

// EmbedHandle is the per-widget surface exposed by the embedding library.
// SetFilters and RemoveFilters may fail; callers treat failures per target.
type EmbedHandle interface {
	On(kind EventKind, fn func(Event))
	SetFilters(ctx context.Context, filters []FilterDescriptor) error
	RemoveFilters(ctx context.Context) error
}

// Destroyer is implemented by handles that hold resources beyond the
// registry reference.
type Destroyer interface {
	Destroy() error
}

// Embedder creates embed handles once the report descriptor is available.
type Embedder interface {
	Embed(ctx context.Context, widget WidgetRef, cfg EmbedConfig) (EmbedHandle, error)
}

// LayoutStore loads and saves the viewer's visual order and added reports.
// Implementations return ErrLayoutNotFound when nothing was saved yet.
type LayoutStore interface {
	LoadLayout(ctx context.Context) (LayoutDocument, error)
	SaveLayout(ctx context.Context, doc LayoutDocument) error
}

// RefreshHook notifies transports (REST/WebSocket) about engine changes.
type RefreshHook interface {
	EngineUpdated(ctx context.Context, event EngineEvent) error
}

// ReportDescriptor carries the embedding prerequisites supplied by the
// identity service.
type ReportDescriptor struct {
	ReportID    string `json:"reportId"`
	PageName    string `json:"pageName"`
	EmbedURL    string `json:"embedUrl"`
	AccessToken string `json:"accessToken"`
}

// Ready reports whether widgets can be embedded with this descriptor.
func (d ReportDescriptor) Ready() bool {
	return d.ReportID != "" && d.EmbedURL != "" && d.AccessToken != ""
}

// EmbedConfig is passed to the embedder for a single widget.
type EmbedConfig struct {
	Report     ReportDescriptor
	Definition WidgetDefinition
}

// LayoutDocument is the persisted user layout.
type LayoutDocument struct {
	VisualOrder            []string    `json:"visualOrder"`
	SelectedDynamicReports []ReportKey `json:"selectedDynamicReports"`
}

// EventKind names callbacks raised by an embed handle.
type EventKind string

const (
	EventLoaded       EventKind = "loaded"
	EventRendered     EventKind = "rendered"
	EventError        EventKind = "error"
	EventDataSelected EventKind = "dataSelected"
)

// Event is a callback payload from an embed handle. Selection is set for
// EventDataSelected; an empty selection means the user cleared it.
type Event struct {
	Kind      EventKind       `json:"kind"`
	Selection *SelectionEvent `json:"selection,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// SelectionEvent mirrors the embedding library's dataSelected payload.
type SelectionEvent struct {
	DataPoints []DataPoint `json:"dataPoints"`
}

// DataPoint is one selected mark.
type DataPoint struct {
	Identity []IdentityEntry `json:"identity"`
}

// IdentityEntry names the column a selected value belongs to.
type IdentityEntry struct {
	Target *Target `json:"target"`
	Equals any     `json:"equals"`
}

// Target is the (table, column) a selection identity points at.
type Target struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// invalidTables are placeholder table names some visuals emit for unbound
// selections.
var invalidTables = map[string]struct{}{
	"undefined": {},
	"null":      {},
}

// FilterDescriptor is a basic filter pushed to embed handles.
type FilterDescriptor struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Valid reports whether the descriptor can be propagated.
func (f FilterDescriptor) Valid() bool {
	if strings.TrimSpace(f.Table) == "" || strings.TrimSpace(f.Column) == "" || strings.TrimSpace(f.Value) == "" {
		return false
	}
	_, invalid := invalidTables[strings.ToLower(f.Table)]
	return !invalid
}

// Binding returns the (table, column) pair of the descriptor.
func (f FilterDescriptor) Binding() Binding {
	return Binding{Table: f.Table, Column: f.Column}
}

// EngineEvent describes changes that transports might care about.
type EngineEvent struct {
	Type     string             `json:"type"`
	WidgetID string             `json:"widgetId,omitempty"`
	Command  string             `json:"command,omitempty"`
	Filters  []FilterDescriptor `json:"filters,omitempty"`
	Order    []string           `json:"order,omitempty"`
	Ready    bool               `json:"ready"`
	Snapshot *Snapshot          `json:"snapshot,omitempty"`
}

const (
	EventTypeFilters       = "filters"
	EventTypeOrder         = "order"
	EventTypeReady         = "ready"
	EventTypeWidgetCommand = "widget_command"
)

var (
	// ErrLayoutNotFound is returned by layout stores when no layout was saved.
	ErrLayoutNotFound = errors.New("dashboard: layout not found")
	// ErrMissingToken is returned when a save is attempted without a bearer token.
	ErrMissingToken = errors.New("dashboard: bearer token unavailable")
	// ErrEngineClosed is returned by engine operations after Close.
	ErrEngineClosed = errors.New("dashboard: engine closed")
	// ErrUnknownWidget is returned when an id is not part of the order list.
	ErrUnknownWidget = errors.New("dashboard: unknown widget")
	// ErrStaticWidget is returned when removing a built-in widget.
	ErrStaticWidget = errors.New("dashboard: static widgets cannot be removed")

	errMissingLayoutStore = errors.New("dashboard: layout store not configured")
)
