package dashboard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opSetFilters    = "setFilters"
	opRemoveFilters = "removeFilters"
)

// TargetResult is the settled outcome of one embed call.
type TargetResult struct {
	WidgetID string
	Err      error
}

// FanoutResult collects every settled target of a fan-out call. Targets are
// reported in registration order regardless of completion order.
type FanoutResult struct {
	Op      string
	Filters []FilterDescriptor
	Targets []TargetResult
}

// Err joins the per-target failures.
func (r FanoutResult) Err() error {
	var errs []error
	for _, t := range r.Targets {
		if t.Err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", r.Op, t.WidgetID, t.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed lists the widgets whose call failed.
func (r FanoutResult) Failed() []string {
	var out []string
	for _, t := range r.Targets {
		if t.Err != nil {
			out = append(out, t.WidgetID)
		}
	}
	return out
}

// TargetIDs lists every widget the call was dispatched to.
func (r FanoutResult) TargetIDs() []string {
	out := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		out = append(out, t.WidgetID)
	}
	return out
}

// ClearResult reports a clear-from-source pass and the optional re-apply of
// the surviving slots.
type ClearResult struct {
	Reset     []Slot
	Removed   FanoutResult
	Reapplied *FanoutResult
}

// Propagator pushes filters to registered widgets. Each target call is
// independent: a failure is logged and never stops the other targets.
type Propagator struct {
	registry *Registry
	state    *SharedState
	limit    int
	logger   *zap.Logger
}

// NewPropagator builds a propagator. limit bounds concurrent embed calls per
// fan-out; zero means unbounded.
func NewPropagator(registry *Registry, state *SharedState, limit int, logger *zap.Logger) *Propagator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Propagator{registry: registry, state: state, limit: limit, logger: logger}
}

// PropagateSingle sends desc to every widget except sourceID. Invalid
// descriptors are dropped.
func (p *Propagator) PropagateSingle(ctx context.Context, sourceID string, desc FilterDescriptor) FanoutResult {
	if !desc.Valid() {
		p.logger.Debug("dropped invalid filter descriptor",
			zap.String("widget_id", sourceID),
			zap.String("binding", desc.Binding().String()))
		return FanoutResult{Op: opSetFilters}
	}
	filters := []FilterDescriptor{desc}
	return p.dispatch(ctx, opSetFilters, filters, p.registry.targets(sourceID), func(ctx context.Context, h EmbedHandle) error {
		return h.SetFilters(ctx, filters)
	})
}

// ApplySharedState replaces the basic filters of every widget, source
// included, with the concrete shared slots.
func (p *Propagator) ApplySharedState(ctx context.Context) FanoutResult {
	filters := p.state.Snapshot().Filters()
	if filters == nil {
		filters = []FilterDescriptor{}
	}
	return p.dispatch(ctx, opSetFilters, filters, p.registry.targets(""), func(ctx context.Context, h EmbedHandle) error {
		return h.SetFilters(ctx, filters)
	})
}

// ClearAll resets every slot and removes filters from every widget.
func (p *Propagator) ClearAll(ctx context.Context) FanoutResult {
	p.state.Reset()
	return p.dispatch(ctx, opRemoveFilters, nil, p.registry.targets(""), func(ctx context.Context, h EmbedHandle) error {
		return h.RemoveFilters(ctx)
	})
}

// ClearFromSource resets the slots owned by sourceID, removes filters from
// every other widget, and re-applies any slot that is still concrete since
// removing filters drops every dimension at once.
func (p *Propagator) ClearFromSource(ctx context.Context, sourceID string, owned ...Slot) ClearResult {
	if len(owned) > 0 {
		p.state.Reset(owned...)
	}
	result := ClearResult{Reset: owned}
	result.Removed = p.dispatch(ctx, opRemoveFilters, nil, p.registry.targets(sourceID), func(ctx context.Context, h EmbedHandle) error {
		return h.RemoveFilters(ctx)
	})
	if len(p.state.Snapshot().Filters()) > 0 {
		reapplied := p.ApplySharedState(ctx)
		result.Reapplied = &reapplied
	}
	return result
}

func (p *Propagator) dispatch(ctx context.Context, op string, filters []FilterDescriptor, targets []registeredHandle, call func(context.Context, EmbedHandle) error) FanoutResult {
	result := FanoutResult{Op: op, Filters: filters, Targets: make([]TargetResult, len(targets))}
	var g errgroup.Group
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}
	for idx, target := range targets {
		result.Targets[idx].WidgetID = target.id
		g.Go(func() error {
			err := safeCall(ctx, target.handle, call)
			if err != nil {
				p.logger.Warn("embed call failed",
					zap.String("widget_id", target.id),
					zap.String("op", op),
					zap.Error(err))
			}
			result.Targets[idx].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func safeCall(ctx context.Context, h EmbedHandle, call func(context.Context, EmbedHandle) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dashboard: embed handle panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return call(ctx, h)
}
