package dashboard

import "slices"

// Snapshot is the read-only view of the dashboard offered to other features
// such as the assistant. It is rebuilt after every propagation and every
// order change.
type Snapshot struct {
	PageName string             `json:"pageName"`
	ReportID string             `json:"reportId"`
	Filters  []FilterDescriptor `json:"filters"`
	Visuals  []VisualSummary    `json:"visuals"`
}

// VisualSummary describes one visual of the page.
type VisualSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		PageName: s.PageName,
		ReportID: s.ReportID,
		Filters:  slices.Clone(s.Filters),
		Visuals:  slices.Clone(s.Visuals),
	}
}

// buildSnapshot lists ordered widgets first, followed by catalog widgets that
// are not mounted. Shared filters come first, then direct filters from
// selections that map to no shared slot, in order-list order.
func buildSnapshot(pageName, reportID string, catalog *Catalog, order []WidgetRef, shared SharedFilterState, direct map[string]FilterDescriptor) Snapshot {
	snap := Snapshot{
		PageName: pageName,
		ReportID: reportID,
		Filters:  []FilterDescriptor{},
		Visuals:  make([]VisualSummary, 0, len(order)),
	}
	snap.Filters = append(snap.Filters, shared.Filters()...)
	mounted := make(map[string]struct{}, len(order))
	for _, ref := range order {
		def := catalog.Definition(ref)
		mounted[ref.ID()] = struct{}{}
		snap.Visuals = append(snap.Visuals, VisualSummary{ID: ref.ID(), Title: def.Title, Type: def.Type, Visible: true})
		if f, ok := direct[ref.ID()]; ok && !slices.Contains(snap.Filters, f) {
			snap.Filters = append(snap.Filters, f)
		}
	}
	for _, def := range catalog.Definitions() {
		if _, ok := mounted[def.ID]; ok {
			continue
		}
		snap.Visuals = append(snap.Visuals, VisualSummary{ID: def.ID, Title: def.Title, Type: def.Type, Visible: false})
	}
	return snap
}
