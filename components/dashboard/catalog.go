package dashboard

import (
	"fmt"
	"strings"
)

// Catalog indexes the static widget definitions.
type Catalog struct {
	defs  map[string]WidgetDefinition
	order []string
}

// NewCatalog validates and indexes defs.
func NewCatalog(defs []WidgetDefinition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]WidgetDefinition, len(defs))}
	for _, def := range defs {
		def.ID = strings.TrimSpace(def.ID)
		if def.ID == "" {
			return nil, fmt.Errorf("dashboard: widget definition id is required")
		}
		if strings.HasPrefix(def.ID, dynamicPrefix) {
			return nil, fmt.Errorf("dashboard: static widget id %s uses the reserved %q prefix", def.ID, dynamicPrefix)
		}
		if _, dup := c.defs[def.ID]; dup {
			return nil, fmt.Errorf("dashboard: duplicate widget definition %s", def.ID)
		}
		if def.Policy == "" {
			def.Policy = PolicyLiteral
		}
		c.defs[def.ID] = def
		c.order = append(c.order, def.ID)
	}
	return c, nil
}

// Static returns the static definition registered under id.
func (c *Catalog) Static(id string) (WidgetDefinition, bool) {
	def, ok := c.defs[id]
	return def, ok
}

// Definition returns the definition for ref, synthesizing one for dynamic
// reports.
func (c *Catalog) Definition(ref WidgetRef) WidgetDefinition {
	if ref.Kind() == WidgetStatic {
		if def, ok := c.defs[ref.ID()]; ok {
			return def
		}
	}
	return WidgetDefinition{
		ID:     ref.ID(),
		Title:  "Report " + ref.ReportID(),
		Type:   "report",
		Policy: PolicyLiteral,
	}
}

// Policy returns the selection policy for a widget id. Unknown ids are
// literal.
func (c *Catalog) Policy(id string) SelectionPolicy {
	if def, ok := c.defs[id]; ok {
		return def.Policy
	}
	return PolicyLiteral
}

// Bindings returns the declared bindings of a static widget.
func (c *Catalog) Bindings(id string) []Binding {
	if def, ok := c.defs[id]; ok {
		return append([]Binding(nil), def.Bindings...)
	}
	return nil
}

// Resolve turns a persisted id into a ref. Only ids read back from storage
// go through here; live refs are built with StaticWidget/DynamicWidget.
func (c *Catalog) Resolve(id string) (WidgetRef, bool) {
	id = strings.TrimSpace(id)
	if _, ok := c.defs[id]; ok {
		return StaticWidget(id), true
	}
	if reportID, ok := strings.CutPrefix(id, dynamicPrefix); ok && reportID != "" {
		return DynamicWidget(reportID), true
	}
	return WidgetRef{}, false
}

// Definitions returns the static definitions in declaration order.
func (c *Catalog) Definitions() []WidgetDefinition {
	out := make([]WidgetDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}
