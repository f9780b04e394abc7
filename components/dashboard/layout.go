package dashboard

// restoreOrder rebuilds the order list from a persisted layout. Persisted ids
// keep their saved position; selected reports missing from the saved order and
// built-in widgets added since the save are appended. Unknown ids are dropped
// and returned so the caller can log them.
func restoreOrder(catalog *Catalog, doc LayoutDocument, defaults []string) ([]WidgetRef, []string) {
	var (
		result  []WidgetRef
		dropped []string
		seen    = map[string]struct{}{}
	)
	add := func(ref WidgetRef) {
		if _, ok := seen[ref.ID()]; ok {
			return
		}
		seen[ref.ID()] = struct{}{}
		result = append(result, ref)
	}
	for _, id := range doc.VisualOrder {
		ref, ok := catalog.Resolve(id)
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		add(ref)
	}
	for _, reportID := range doc.SelectedDynamicReports {
		if reportID == "" {
			continue
		}
		add(DynamicWidget(reportID))
	}
	for _, ref := range defaultOrder(catalog, defaults) {
		add(ref)
	}
	return result, dropped
}

func defaultOrder(catalog *Catalog, ids []string) []WidgetRef {
	refs := make([]WidgetRef, 0, len(ids))
	for _, id := range ids {
		if _, ok := catalog.Static(id); ok {
			refs = append(refs, StaticWidget(id))
		}
	}
	return refs
}
