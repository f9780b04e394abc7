package queries

import (
	"context"
	"errors"
	"testing"

	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

type stubEngine struct {
	ready bool
	order []string
}

func (s stubEngine) Snapshot() dashboard.Snapshot {
	return dashboard.Snapshot{PageName: "SalesOverview"}
}
func (s stubEngine) IsReady() bool                            { return s.ready }
func (s stubEngine) Order() []string                          { return s.order }
func (s stubEngine) SharedState() dashboard.SharedFilterState { return dashboard.SharedFilterState{} }
func (s stubEngine) SaveStatus() dashboard.SaveStatus         { return dashboard.SaveStatus{} }

func TestSnapshotQuery(t *testing.T) {
	query := NewSnapshotQuery(stubEngine{order: []string{"a"}})
	snap, err := query.Query(context.Background(), SnapshotInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if snap.PageName != "SalesOverview" {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	if _, err := NewSnapshotQuery(nil).Query(context.Background(), SnapshotInput{}); err == nil {
		t.Fatalf("expected missing engine error")
	}
}

func TestReadinessQuery(t *testing.T) {
	query := NewReadinessQuery(stubEngine{ready: true, order: []string{"a", "b"}})
	res, err := query.Query(context.Background(), ReadinessInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if !res.Ready || len(res.Order) != 2 {
		t.Fatalf("unexpected result %#v", res)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := query.Query(ctx, ReadinessInput{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestViewQuery(t *testing.T) {
	view, err := NewViewQuery(stubEngine{ready: true, order: []string{"a"}}).Query(context.Background(), ViewInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if !view.Ready || view.Snapshot.PageName != "SalesOverview" {
		t.Fatalf("unexpected view %#v", view)
	}
}

func TestLayoutQuery(t *testing.T) {
	store := dashboard.NewInMemoryLayoutStore()
	query := NewLayoutQuery(store)
	if _, err := query.Query(context.Background(), LayoutInput{BearerToken: "viewer"}); !errors.Is(err, dashboard.ErrLayoutNotFound) {
		t.Fatalf("expected ErrLayoutNotFound, got %v", err)
	}
	ctx := dashboard.ContextWithBearerToken(context.Background(), "viewer")
	if err := store.SaveLayout(ctx, dashboard.LayoutDocument{VisualOrder: []string{"store-sales"}}); err != nil {
		t.Fatal(err)
	}
	doc, err := query.Query(context.Background(), LayoutInput{BearerToken: "viewer"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(doc.VisualOrder) != 1 {
		t.Fatalf("unexpected layout %#v", doc)
	}
	if _, err := NewLayoutQuery(nil).Query(context.Background(), LayoutInput{}); err == nil {
		t.Fatalf("expected missing store error")
	}
}
