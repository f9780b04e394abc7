package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalReportID(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{42, "42"},
		{int64(42), "42"},
		{42.0, "42"},
		{float32(7), "7"},
		{"42", "42"},
		{" 42 ", "42"},
		{json.Number("42.0"), "42"},
		{1.5, "1.5"},
		{"abc-def", "abc-def"},
		{ReportKey("9"), "9"},
		{nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanonicalReportID(tc.in), "%#v", tc.in)
	}
}

func TestWidgetRefIdentity(t *testing.T) {
	static := StaticWidget("store-sales")
	assert.Equal(t, WidgetStatic, static.Kind())
	assert.Equal(t, "store-sales", static.ID())
	assert.Empty(t, static.ReportID())

	dynamic := DynamicWidget(42)
	assert.Equal(t, WidgetDynamic, dynamic.Kind())
	assert.Equal(t, "dynamic-42", dynamic.ID())
	assert.Equal(t, "42", dynamic.ReportID())
	assert.Equal(t, dynamic, DynamicWidget("42"))
	assert.NotEqual(t, StaticWidget("42"), DynamicWidget(42))

	assert.True(t, DynamicWidget("").IsZero())
	assert.Equal(t, "dynamic", WidgetDynamic.String())
}

func TestCatalogResolvePersistedIDs(t *testing.T) {
	catalog, err := NewCatalog(defaultWidgetDefinitions)
	require.NoError(t, err)

	ref, ok := catalog.Resolve("store-sales")
	require.True(t, ok)
	assert.Equal(t, WidgetStatic, ref.Kind())

	ref, ok = catalog.Resolve("dynamic-17")
	require.True(t, ok)
	assert.Equal(t, DynamicWidget(17), ref)

	_, ok = catalog.Resolve("dynamic-")
	assert.False(t, ok)
	_, ok = catalog.Resolve("not-a-widget")
	assert.False(t, ok)

	assert.Equal(t, PolicyAlwaysRandom, catalog.Policy("peer-compare"))
	assert.Equal(t, PolicyLiteral, catalog.Policy("store-sales"))
	assert.Equal(t, PolicyLiteral, catalog.Policy("dynamic-17"))
}

func TestNewCatalogRejectsBadDefinitions(t *testing.T) {
	_, err := NewCatalog([]WidgetDefinition{{ID: " "}})
	assert.Error(t, err)
	_, err = NewCatalog([]WidgetDefinition{{ID: "a"}, {ID: "a"}})
	assert.Error(t, err)
	_, err = NewCatalog([]WidgetDefinition{{ID: "dynamic-a"}})
	assert.Error(t, err)
}
