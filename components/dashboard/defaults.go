package dashboard

var (
	bindingStore          = Binding{Table: "Store", Column: "Store"}
	bindingProduct        = Binding{Table: "Product", Column: "Product"}
	bindingProductSegment = Binding{Table: "Product", Column: "Segment"}
)

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		ID:       "store-sales",
		Title:    "Sales by Store",
		Type:     "clusteredBarChart",
		Bindings: []Binding{bindingStore},
	},
	{
		ID:       "product-mix",
		Title:    "Product Mix",
		Type:     "donutChart",
		Bindings: []Binding{bindingProduct},
	},
	{
		ID:       "segment-share",
		Title:    "Share by Segment",
		Type:     "stackedColumnChart",
		Bindings: []Binding{bindingProductSegment},
	},
	{
		ID:     "peer-compare",
		Title:  "Peer Comparison",
		Type:   "scatterChart",
		Policy: PolicyAlwaysRandom,
	},
	{
		ID:    "kpi-summary",
		Title: "KPI Summary",
		Type:  "multiRowCard",
	},
}

var defaultDimensions = []DimensionConfig{
	{
		Slot:     SlotCategory,
		Options:  []string{"Barba", "Contoso", "Fabrikam", "Litware", "Northwind"},
		Bindings: []Binding{bindingStore, bindingProduct},
		Filter:   bindingStore,
	},
	{
		Slot:     SlotSegment,
		Options:  []string{"Enterprise", "SMB", "Consumer", "Public Sector"},
		Bindings: []Binding{bindingProductSegment},
	},
}

var defaultNormalizer = NormalizerConfig{
	Aliases: map[string]string{
		"SharePoint": "Barba",
		"Dynamics":   "Contoso",
	},
	Ambiguous: []string{"Teams", "Outlook", "OneDrive", "Other"},
	Fallback:  []string{"Barba", "Contoso", "Fabrikam"},
}

// DefaultConfig returns the built-in sales overview page.
func DefaultConfig() Config {
	widgets := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	for i, def := range defaultWidgetDefinitions {
		def.Bindings = append([]Binding(nil), def.Bindings...)
		widgets[i] = def
	}
	dims := make([]DimensionConfig, len(defaultDimensions))
	for i, dim := range defaultDimensions {
		dim.Options = append([]string(nil), dim.Options...)
		dim.Bindings = append([]Binding(nil), dim.Bindings...)
		dims[i] = dim
	}
	aliases := make(map[string]string, len(defaultNormalizer.Aliases))
	for k, v := range defaultNormalizer.Aliases {
		aliases[k] = v
	}
	cfg := Config{
		Version:    configVersionV1,
		PageName:   "SalesOverview",
		Widgets:    widgets,
		Dimensions: dims,
		Normalizer: NormalizerConfig{
			Aliases:   aliases,
			Ambiguous: append([]string(nil), defaultNormalizer.Ambiguous...),
			Fallback:  append([]string(nil), defaultNormalizer.Fallback...),
		},
		RandomTarget:  bindingStore,
		QuietPeriodMS: int(defaultQuietPeriod.Milliseconds()),
		FanoutLimit:   defaultFanoutLimit,
	}
	cfg.applyDefaults()
	return cfg
}
