package dashboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshotListsOrderedThenHiddenVisuals(t *testing.T) {
	catalog, err := NewCatalog(defaultWidgetDefinitions)
	require.NoError(t, err)
	state := newDefaultState(t)
	require.NoError(t, state.Set(SlotCategory, "Barba", bindingStore))

	order := []WidgetRef{StaticWidget("product-mix"), DynamicWidget(42), StaticWidget("store-sales")}
	direct := map[string]FilterDescriptor{
		"dynamic-42": {Table: "Calendar", Column: "Month", Value: "March"},
		"retired":    {Table: "Calendar", Column: "Year", Value: "2020"},
	}

	got := buildSnapshot("SalesOverview", "report-1", catalog, order, state.Snapshot(), direct)
	want := Snapshot{
		PageName: "SalesOverview",
		ReportID: "report-1",
		Filters: []FilterDescriptor{
			{Table: "Store", Column: "Store", Value: "Barba"},
			{Table: "Calendar", Column: "Month", Value: "March"},
		},
		Visuals: []VisualSummary{
			{ID: "product-mix", Title: "Product Mix", Type: "donutChart", Visible: true},
			{ID: "dynamic-42", Title: "Report 42", Type: "report", Visible: true},
			{ID: "store-sales", Title: "Sales by Store", Type: "clusteredBarChart", Visible: true},
			{ID: "segment-share", Title: "Share by Segment", Type: "stackedColumnChart"},
			{ID: "peer-compare", Title: "Peer Comparison", Type: "scatterChart"},
			{ID: "kpi-summary", Title: "KPI Summary", Type: "multiRowCard"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotCloneIsDetached(t *testing.T) {
	snap := Snapshot{
		Filters: []FilterDescriptor{{Table: "Store", Column: "Store", Value: "Barba"}},
		Visuals: []VisualSummary{{ID: "a"}},
	}
	clone := snap.clone()
	clone.Filters[0].Value = "Contoso"
	clone.Visuals[0].ID = "b"
	if snap.Filters[0].Value != "Barba" || snap.Visuals[0].ID != "a" {
		t.Fatalf("clone shares backing arrays: %#v", snap)
	}
}
