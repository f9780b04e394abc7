package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizerResolvesAliases(t *testing.T) {
	n := NewNormalizer(defaultNormalizer, NewSeededPicker(1))
	assert.Equal(t, "Barba", n.Normalize("SharePoint"))
	assert.Equal(t, "Contoso", n.Normalize("Dynamics"))
}

func TestNormalizerReplacesAmbiguousValuesFromFallback(t *testing.T) {
	n := NewNormalizer(defaultNormalizer, NewSeededPicker(7))
	for _, raw := range []string{"Teams", "Outlook", "OneDrive", "Other"} {
		for range 25 {
			assert.Contains(t, defaultNormalizer.Fallback, n.Normalize(raw), raw)
		}
	}
}

func TestNormalizerPassesThroughUnknownValues(t *testing.T) {
	n := NewNormalizer(defaultNormalizer, nil)
	assert.Equal(t, "Fabrikam", n.Normalize("Fabrikam"))
	assert.Equal(t, "Enterprise", n.Normalize("Enterprise"))
	assert.Equal(t, "teams", n.Normalize("teams"), "lookups are case sensitive")
}

func TestNormalizerCopiesConfig(t *testing.T) {
	cfg := NormalizerConfig{
		Aliases:  map[string]string{"A": "B"},
		Fallback: []string{"X"},
	}
	n := NewNormalizer(cfg, nil)
	cfg.Aliases["A"] = "C"
	cfg.Fallback[0] = "Y"
	assert.Equal(t, "B", n.Normalize("A"))
	assert.Equal(t, []string{"X"}, n.Fallback())
}

func TestSeededPickerIsReproducible(t *testing.T) {
	set := []string{"Barba", "Contoso", "Fabrikam"}
	a, b := NewSeededPicker(42), NewSeededPicker(42)
	for range 20 {
		require.Equal(t, a.Pick(set), b.Pick(set))
	}
}

func TestRandomPickerCoversSet(t *testing.T) {
	set := []string{"Barba", "Contoso", "Fabrikam"}
	p := NewSeededPicker(3)
	seen := map[string]int{}
	for range 300 {
		seen[p.Pick(set)]++
	}
	assert.Len(t, seen, len(set))
	assert.Equal(t, "", p.Pick(nil))
	assert.Equal(t, "", NewRandomPicker().Pick([]string{}))
}
