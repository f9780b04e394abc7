package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Options configures the Engine. Every collaborator is provided via interface
// so hosts can swap the embedding library, the layout API and the token
// source without touching the engine.
type Options struct {
	Config      Config
	Embedder    Embedder
	LayoutStore LayoutStore
	TokenSource oauth2.TokenSource
	Picker      Picker
	RefreshHook RefreshHook
	Telemetry   Telemetry
	Logger      *zap.Logger
	// QuietPeriod overrides Config.QuietPeriodMS when positive.
	QuietPeriod time.Duration
}

type noopRefreshHook struct{}

func (noopRefreshHook) EngineUpdated(context.Context, EngineEvent) error { return nil }

// SelectionResult is the outcome of a single selection.
type SelectionResult struct {
	Filter  FilterDescriptor `json:"filter"`
	Applied bool             `json:"applied"`
	Fanout  FanoutResult     `json:"-"`
}

// Engine keeps every widget of a page in step: it owns the registry, the
// shared filter state, the order list and the readiness signal. Handlers are
// serialized by the engine lock; embed calls fan out after it is released.
type Engine struct {
	opts      Options
	id        string
	logger    *zap.Logger
	telemetry Telemetry
	hook      RefreshHook

	catalog     *Catalog
	registry    *Registry
	state       *SharedState
	normalizer  *Normalizer
	interpreter *Interpreter
	propagator  *Propagator
	order       *OrderList
	readiness   *ReadinessTracker
	persistence *PersistenceBridge

	mu         sync.Mutex
	report     ReportDescriptor
	embedding  map[string]struct{}
	lastSlot   map[string]Slot
	direct     map[string]FilterDescriptor
	generation uint64
	closed     bool

	snapMu   sync.RWMutex
	snapshot Snapshot
}

// NewEngine builds an Engine with safe defaults. An empty config falls back
// to DefaultConfig.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Config.IsZero() {
		opts.Config = DefaultConfig()
	} else {
		opts.Config.applyDefaults()
		if err := opts.Config.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Picker == nil {
		opts.Picker = NewRandomPicker()
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = opts.Config.QuietPeriod()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)

	catalog, err := NewCatalog(opts.Config.Widgets)
	if err != nil {
		return nil, err
	}
	state, err := NewSharedState(opts.Config.Dimensions)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := opts.Logger.Named("visualsync").With(zap.String("engine_id", id))
	normalizer := NewNormalizer(opts.Config.Normalizer, opts.Picker)
	registry := NewRegistry(logger.Named("registry"))
	persistence := NewPersistenceBridge(PersistenceOptions{
		Store:       opts.LayoutStore,
		TokenSource: opts.TokenSource,
		QuietPeriod: opts.QuietPeriod,
		Telemetry:   opts.Telemetry,
		Logger:      logger.Named("persistence"),
	})

	e := &Engine{
		opts:        opts,
		id:          id,
		logger:      logger,
		telemetry:   opts.Telemetry,
		hook:        opts.RefreshHook,
		catalog:     catalog,
		registry:    registry,
		state:       state,
		normalizer:  normalizer,
		interpreter: NewInterpreter(normalizer, state, catalog, opts.Config.RandomTarget, logger.Named("interpreter")),
		propagator:  NewPropagator(registry, state, opts.Config.fanoutLimit(), logger.Named("propagator")),
		order:       NewOrderList(persistence),
		readiness:   NewReadinessTracker(),
		persistence: persistence,
		embedding:   map[string]struct{}{},
		lastSlot:    map[string]Slot{},
		direct:      map[string]FilterDescriptor{},
	}
	e.mu.Lock()
	e.rebuildSnapshotLocked()
	e.mu.Unlock()
	return e, nil
}

// ID identifies the engine in logs and telemetry.
func (e *Engine) ID() string { return e.id }

// Catalog exposes the widget catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Mount restores the persisted order, falling back to the default order when
// no layout was saved or the load failed, and embeds the widgets when a
// report descriptor is available.
func (e *Engine) Mount(ctx context.Context) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	defaults := e.opts.Config.DefaultOrder
	refs := defaultOrder(e.catalog, defaults)
	doc, err := e.loadLayout(ctx)
	switch {
	case err == nil:
		var dropped []string
		refs, dropped = restoreOrder(e.catalog, doc, defaults)
		if len(dropped) > 0 {
			e.logger.Warn("dropped unknown widgets from saved layout", zap.Strings("widget_ids", dropped))
		}
	case errors.Is(err, ErrLayoutNotFound):
		e.logger.Debug("no saved layout, using default order")
	default:
		e.logger.Warn("layout load failed, using default order", zap.Error(err))
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.order.Load(refs)
	ids := e.order.IDs()
	e.mu.Unlock()

	e.telemetry.Record(ctx, "dashboard.order.load", map[string]any{
		"engine_id": e.id,
		"order":     ids,
	})
	e.sync(ctx, EngineEvent{Type: EventTypeOrder, Order: ids})
	return e.EmbedPending(ctx)
}

func (e *Engine) loadLayout(ctx context.Context) (LayoutDocument, error) {
	if e.opts.LayoutStore == nil {
		return LayoutDocument{}, errMissingLayoutStore
	}
	if BearerTokenFrom(ctx) == "" {
		if token, err := accessToken(e.opts.TokenSource); err == nil {
			ctx = ContextWithBearerToken(ctx, token)
		}
	}
	if RequestIDFrom(ctx) == "" {
		ctx = ContextWithRequestID(ctx, uuid.NewString())
	}
	doc, err := e.opts.LayoutStore.LoadLayout(ctx)
	if err != nil {
		return LayoutDocument{}, fmt.Errorf("dashboard: load layout: %w", err)
	}
	return doc, nil
}

// SetReport stores the embedding prerequisites and embeds every ordered
// widget that has no handle yet.
func (e *Engine) SetReport(ctx context.Context, report ReportDescriptor) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.report = report
	e.mu.Unlock()
	e.sync(ctx)
	return e.EmbedPending(ctx)
}

// EmbedPending embeds every ordered widget without a handle. Embeds run
// concurrently; completions that arrive after Close or after the widget left
// the order are discarded.
func (e *Engine) EmbedPending(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if reportReady := e.report.Ready(); e.opts.Embedder == nil || !reportReady {
		e.mu.Unlock()
		e.logger.Debug("embedding deferred",
			zap.Bool("embedder", e.opts.Embedder != nil),
			zap.Bool("report_ready", reportReady))
		return nil
	}
	report := e.report
	gen := e.generation
	var pending []WidgetRef
	for _, ref := range e.order.Refs() {
		id := ref.ID()
		if e.registry.Has(id) {
			continue
		}
		if _, busy := e.embedding[id]; busy {
			continue
		}
		e.embedding[id] = struct{}{}
		pending = append(pending, ref)
	}
	e.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(e.opts.Config.fanoutLimit())
	for _, ref := range pending {
		g.Go(func() error {
			handle, err := e.opts.Embedder.Embed(ctx, ref, EmbedConfig{
				Report:     report,
				Definition: e.catalog.Definition(ref),
			})
			e.completeEmbed(ctx, ref, gen, handle, err)
			return nil
		})
	}
	_ = g.Wait()
	e.sync(ctx)
	return nil
}

func (e *Engine) completeEmbed(ctx context.Context, ref WidgetRef, gen uint64, handle EmbedHandle, err error) {
	id := ref.ID()
	e.mu.Lock()
	delete(e.embedding, id)
	stale := e.closed || gen != e.generation || !e.order.Contains(id)
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("widget embed failed", zap.String("widget_id", id), zap.Error(err))
		e.telemetry.Record(ctx, "dashboard.embed_error", map[string]any{
			"engine_id": e.id,
			"widget_id": id,
			"error":     err.Error(),
		})
		return
	}
	if stale {
		e.mu.Unlock()
		e.logger.Debug("discarded stale embed", zap.String("widget_id", id))
		e.release(id, handle)
		return
	}
	registered := e.registry.Register(ref, handle)
	e.mu.Unlock()
	if !registered {
		e.release(id, handle)
		return
	}
	e.wireCallbacks(id, gen, handle)
	e.logger.Debug("widget embedded", zap.String("widget_id", id))
	if e.registry.Rendered(id) {
		e.sync(ctx)
	}
}

func (e *Engine) wireCallbacks(id string, gen uint64, handle EmbedHandle) {
	for _, kind := range []EventKind{EventLoaded, EventRendered, EventError, EventDataSelected} {
		handle.On(kind, func(ev Event) {
			if ev.Kind == "" {
				ev.Kind = kind
			}
			if err := e.dispatchEvent(context.Background(), gen, id, ev); err != nil && !errors.Is(err, ErrEngineClosed) {
				e.logger.Warn("widget event failed", zap.String("widget_id", id), zap.Error(err))
			}
		})
	}
}

func (e *Engine) release(id string, handle EmbedHandle) {
	d, ok := handle.(Destroyer)
	if !ok {
		return
	}
	if err := d.Destroy(); err != nil {
		e.logger.Warn("widget destroy failed", zap.String("widget_id", id), zap.Error(err))
	}
}

// HandleEvent routes a callback reported by the host for widget id, for
// example when the embedding library runs in a browser.
func (e *Engine) HandleEvent(ctx context.Context, id string, ev Event) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	gen := e.generation
	known := e.order.Contains(id)
	e.mu.Unlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, id)
	}
	return e.dispatchEvent(ctx, gen, id, ev)
}

func (e *Engine) dispatchEvent(ctx context.Context, gen uint64, id string, ev Event) error {
	e.mu.Lock()
	stale := e.closed || gen != e.generation
	e.mu.Unlock()
	if stale {
		e.logger.Debug("discarded stale widget event", zap.String("widget_id", id), zap.String("kind", string(ev.Kind)))
		return ErrEngineClosed
	}

	switch ev.Kind {
	case EventLoaded:
		e.logger.Debug("widget loaded", zap.String("widget_id", id))
		return nil
	case EventRendered:
		if e.registry.MarkRendered(id) {
			e.sync(ctx)
		}
		return nil
	case EventError:
		e.logger.Warn("widget reported error", zap.String("widget_id", id), zap.String("message", ev.Message))
		e.telemetry.Record(ctx, "dashboard.widget_error", map[string]any{
			"engine_id": e.id,
			"widget_id": id,
			"message":   ev.Message,
		})
		return nil
	case EventDataSelected:
		if ev.Selection == nil || len(ev.Selection.DataPoints) == 0 {
			_, err := e.ClearSelection(ctx, id)
			return err
		}
		_, err := e.Select(ctx, id, *ev.Selection)
		return err
	default:
		return fmt.Errorf("dashboard: unknown event kind %q", ev.Kind)
	}
}

// Select interprets a selection made in sourceID and pushes the resulting
// filter to every other widget. Malformed selections are dropped.
func (e *Engine) Select(ctx context.Context, sourceID string, sel SelectionEvent) (SelectionResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return SelectionResult{}, ErrEngineClosed
	}
	if !e.order.Contains(sourceID) {
		e.mu.Unlock()
		return SelectionResult{}, fmt.Errorf("%w: %s", ErrUnknownWidget, sourceID)
	}
	desc, ok := e.interpreter.Interpret(sourceID, sel)
	if !ok {
		e.mu.Unlock()
		return SelectionResult{}, nil
	}
	if slot, mapped := e.state.SlotFor(desc.Binding()); mapped {
		e.lastSlot[sourceID] = slot
		delete(e.direct, sourceID)
	} else if desc.Valid() {
		e.direct[sourceID] = desc
	}
	e.mu.Unlock()

	fanout := e.propagator.PropagateSingle(ctx, sourceID, desc)
	e.telemetry.Record(ctx, "dashboard.selection.propagate", map[string]any{
		"engine_id": e.id,
		"widget_id": sourceID,
		"table":     desc.Table,
		"column":    desc.Column,
		"value":     desc.Value,
		"targets":   fanout.TargetIDs(),
		"failed":    fanout.Failed(),
	})
	e.sync(ctx, EngineEvent{Type: EventTypeFilters, WidgetID: sourceID, Filters: []FilterDescriptor{desc}})
	return SelectionResult{Filter: desc, Applied: desc.Valid(), Fanout: fanout}, nil
}

// ClearSelection resets the slots owned by sourceID and clears the other
// widgets, re-applying any slot that is still set.
func (e *Engine) ClearSelection(ctx context.Context, sourceID string) (ClearResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ClearResult{}, ErrEngineClosed
	}
	if !e.order.Contains(sourceID) {
		e.mu.Unlock()
		return ClearResult{}, fmt.Errorf("%w: %s", ErrUnknownWidget, sourceID)
	}
	owned := e.ownedSlotsLocked(sourceID)
	delete(e.lastSlot, sourceID)
	// Removing filters from the other widgets drops every direct filter too.
	clear(e.direct)
	e.mu.Unlock()

	result := e.propagator.ClearFromSource(ctx, sourceID, owned...)
	remaining := e.state.Snapshot().Filters()
	e.telemetry.Record(ctx, "dashboard.filters.clear", map[string]any{
		"engine_id": e.id,
		"widget_id": sourceID,
		"reset":     result.Reset,
		"reapplied": result.Reapplied != nil,
	})
	e.sync(ctx, EngineEvent{Type: EventTypeFilters, WidgetID: sourceID, Filters: remaining})
	return result, nil
}

// ownedSlotsLocked returns the slots mapped from the widget's bindings plus
// the slot its last selection wrote to.
func (e *Engine) ownedSlotsLocked(id string) []Slot {
	owned := e.state.slotsForBindings(e.catalog.Bindings(id))
	if e.catalog.Policy(id) == PolicyAlwaysRandom {
		if slot, ok := e.state.SlotFor(e.opts.Config.RandomTarget); ok && !slices.Contains(owned, slot) {
			owned = append(owned, slot)
		}
	}
	if slot, ok := e.lastSlot[id]; ok && !slices.Contains(owned, slot) {
		owned = append(owned, slot)
	}
	return owned
}

// ClearAll resets every slot and removes filters from every widget.
func (e *Engine) ClearAll(ctx context.Context) (FanoutResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return FanoutResult{}, ErrEngineClosed
	}
	clear(e.lastSlot)
	clear(e.direct)
	e.mu.Unlock()

	result := e.propagator.ClearAll(ctx)
	e.telemetry.Record(ctx, "dashboard.filters.clear", map[string]any{
		"engine_id": e.id,
		"all":       true,
		"targets":   result.TargetIDs(),
	})
	e.sync(ctx, EngineEvent{Type: EventTypeFilters, Filters: []FilterDescriptor{}})
	return result, nil
}

// ApplySharedState replaces the filters of every widget with the concrete
// shared slots.
func (e *Engine) ApplySharedState(ctx context.Context) (FanoutResult, error) {
	if e.isClosed() {
		return FanoutResult{}, ErrEngineClosed
	}
	result := e.propagator.ApplySharedState(ctx)
	e.telemetry.Record(ctx, "dashboard.filters.apply", map[string]any{
		"engine_id": e.id,
		"filters":   result.Filters,
		"targets":   result.TargetIDs(),
		"failed":    result.Failed(),
	})
	e.sync(ctx, EngineEvent{Type: EventTypeFilters, Filters: result.Filters})
	return result, nil
}

// Reorder moves activeID to overID's position and schedules a save.
func (e *Engine) Reorder(ctx context.Context, activeID, overID string) (bool, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false, ErrEngineClosed
	}
	moved := e.order.Reorder(activeID, overID)
	ids := e.order.IDs()
	e.mu.Unlock()
	if !moved {
		return false, nil
	}
	e.telemetry.Record(ctx, "dashboard.order.reorder", map[string]any{
		"engine_id": e.id,
		"active":    activeID,
		"over":      overID,
	})
	e.sync(ctx, EngineEvent{Type: EventTypeOrder, Order: ids})
	return true, nil
}

// AddWidgets appends user-selected reports as dynamic widgets, skipping ids
// already present, and embeds them. It returns the ids that were added.
func (e *Engine) AddWidgets(ctx context.Context, reportIDs ...any) ([]string, error) {
	refs := make([]WidgetRef, 0, len(reportIDs))
	for _, reportID := range reportIDs {
		ref := DynamicWidget(reportID)
		if ref.IsZero() {
			continue
		}
		refs = append(refs, ref)
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	added := e.order.Append(refs...)
	ids := e.order.IDs()
	e.mu.Unlock()
	if len(added) == 0 {
		return nil, nil
	}
	addedIDs := make([]string, 0, len(added))
	for _, ref := range added {
		addedIDs = append(addedIDs, ref.ID())
	}
	e.telemetry.Record(ctx, "dashboard.order.append", map[string]any{
		"engine_id":  e.id,
		"widget_ids": addedIDs,
	})
	e.sync(ctx, EngineEvent{Type: EventTypeOrder, Order: ids})
	return addedIDs, e.EmbedPending(ctx)
}

// RemoveWidget drops a dynamic widget from the order and releases its handle.
func (e *Engine) RemoveWidget(ctx context.Context, id string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	ref, ok := e.order.Lookup(id)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWidget, id)
	}
	if ref.Kind() == WidgetStatic {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStaticWidget, id)
	}
	e.order.Remove(id)
	handle, had := e.registry.Remove(id)
	delete(e.direct, id)
	delete(e.lastSlot, id)
	ids := e.order.IDs()
	e.mu.Unlock()

	if had {
		e.release(id, handle)
	}
	e.telemetry.Record(ctx, "dashboard.order.remove", map[string]any{
		"engine_id": e.id,
		"widget_id": id,
	})
	e.sync(ctx, EngineEvent{Type: EventTypeOrder, WidgetID: id, Order: ids})
	return nil
}

// IsReady is computed from the current order and rendered flags.
func (e *Engine) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	return evaluateReadiness(e.order.Loaded(), e.order.IDs(), e.registry.Rendered)
}

// Order returns the current visual order.
func (e *Engine) Order() []string {
	return e.order.IDs()
}

// SharedState returns a copy of the shared filter slots.
func (e *Engine) SharedState() SharedFilterState {
	return e.state.Snapshot()
}

// Snapshot returns the latest page snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot.clone()
}

// SaveStatus reports the advisory persistence state.
func (e *Engine) SaveStatus() SaveStatus {
	return e.persistence.Status()
}

// FlushSave sends a pending layout save immediately.
func (e *Engine) FlushSave() bool {
	return e.persistence.Flush()
}

// Close tears the engine down: pending embeds and callbacks are discarded,
// handles are released and the pending save is dropped.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.generation++
	handles := e.registry.Reset()
	e.embedding = map[string]struct{}{}
	e.readiness.Reset()
	e.mu.Unlock()

	e.persistence.Close()
	var errs []error
	for _, handle := range handles {
		if d, ok := handle.(Destroyer); ok {
			if err := d.Destroy(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	e.logger.Debug("engine closed", zap.Int("handles", len(handles)))
	return errors.Join(errs...)
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// sync rebuilds the snapshot, re-evaluates readiness and publishes events.
func (e *Engine) sync(ctx context.Context, events ...EngineEvent) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	snap := e.rebuildSnapshotLocked()
	ready, changed := e.readiness.Recompute(e.order.Loaded(), e.order.IDs(), e.registry.Rendered)
	e.mu.Unlock()

	if changed {
		e.logger.Info("readiness changed", zap.Bool("ready", ready))
		e.telemetry.Record(ctx, "dashboard.ready", map[string]any{
			"engine_id": e.id,
			"ready":     ready,
		})
		events = append(events, EngineEvent{Type: EventTypeReady})
	}
	for _, ev := range events {
		ev.Ready = ready
		s := snap.clone()
		ev.Snapshot = &s
		if err := e.hook.EngineUpdated(ctx, ev); err != nil {
			e.logger.Warn("refresh hook failed", zap.String("type", ev.Type), zap.Error(err))
		}
	}
}

func (e *Engine) rebuildSnapshotLocked() Snapshot {
	pageName := e.report.PageName
	if pageName == "" {
		pageName = e.opts.Config.PageName
	}
	snap := buildSnapshot(pageName, e.report.ReportID, e.catalog, e.order.Refs(), e.state.Snapshot(), e.direct)
	e.snapMu.Lock()
	e.snapshot = snap
	e.snapMu.Unlock()
	return snap
}
