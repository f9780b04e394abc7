package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// SnapshotInput carries no parameters; the engine holds a single page.
type SnapshotInput struct{}

type snapshotService interface {
	Snapshot() dashboard.Snapshot
}

// SnapshotQuery returns the latest published engine snapshot.
type SnapshotQuery struct {
	service snapshotService
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(service snapshotService) *SnapshotQuery {
	return &SnapshotQuery{service: service}
}

var _ gocommand.Querier[SnapshotInput, dashboard.Snapshot] = (*SnapshotQuery)(nil)

// Query returns the snapshot.
func (q *SnapshotQuery) Query(ctx context.Context, _ SnapshotInput) (dashboard.Snapshot, error) {
	if q.service == nil {
		return dashboard.Snapshot{}, errors.New("snapshot query requires engine")
	}
	if err := ctx.Err(); err != nil {
		return dashboard.Snapshot{}, err
	}
	return q.service.Snapshot(), nil
}

// ReadinessInput carries no parameters.
type ReadinessInput struct{}

// ReadinessResult reports whether every visual in the order has rendered.
type ReadinessResult struct {
	Ready bool     `json:"ready"`
	Order []string `json:"order"`
}

type readinessService interface {
	IsReady() bool
	Order() []string
}

// ReadinessQuery answers page-ready checks.
type ReadinessQuery struct {
	service readinessService
}

// NewReadinessQuery builds the query.
func NewReadinessQuery(service readinessService) *ReadinessQuery {
	return &ReadinessQuery{service: service}
}

var _ gocommand.Querier[ReadinessInput, ReadinessResult] = (*ReadinessQuery)(nil)

// Query reports readiness alongside the order it was computed for.
func (q *ReadinessQuery) Query(ctx context.Context, _ ReadinessInput) (ReadinessResult, error) {
	if q.service == nil {
		return ReadinessResult{}, errors.New("readiness query requires engine")
	}
	if err := ctx.Err(); err != nil {
		return ReadinessResult{}, err
	}
	return ReadinessResult{Ready: q.service.IsReady(), Order: q.service.Order()}, nil
}

// ViewInput carries no parameters.
type ViewInput struct{}

// ViewQuery renders the combined page view through a dashboard controller.
type ViewQuery struct {
	controller *dashboard.Controller
}

// NewViewQuery builds the query over any view source, usually the engine.
func NewViewQuery(source dashboard.ViewSource) *ViewQuery {
	return &ViewQuery{controller: dashboard.NewController(source)}
}

var _ gocommand.Querier[ViewInput, dashboard.View] = (*ViewQuery)(nil)

// Query renders the view.
func (q *ViewQuery) Query(ctx context.Context, _ ViewInput) (dashboard.View, error) {
	return q.controller.Render(ctx)
}
