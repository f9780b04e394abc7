package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// LayoutInput selects the viewer whose saved layout is read.
type LayoutInput struct {
	BearerToken string `json:"-"`
}

// LayoutQuery reads the persisted layout document for a viewer.
type LayoutQuery struct {
	store dashboard.LayoutStore
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(store dashboard.LayoutStore) *LayoutQuery {
	return &LayoutQuery{store: store}
}

var _ gocommand.Querier[LayoutInput, dashboard.LayoutDocument] = (*LayoutQuery)(nil)

// Query loads the layout. Missing layouts surface dashboard.ErrLayoutNotFound.
func (q *LayoutQuery) Query(ctx context.Context, msg LayoutInput) (dashboard.LayoutDocument, error) {
	if q.store == nil {
		return dashboard.LayoutDocument{}, errors.New("layout query requires layout store")
	}
	if msg.BearerToken != "" {
		ctx = dashboard.ContextWithBearerToken(ctx, msg.BearerToken)
	}
	return q.store.LoadLayout(ctx)
}
