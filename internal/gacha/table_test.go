package gacha

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, table.Tiers())
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no tiers", "tiers: []"},
		{"zero weight", "tiers:\n  - name: a\n    weight: 0\n    items: [x]"},
		{"no items", "tiers:\n  - name: a\n    weight: 1\n    items: []"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestDrawDeterministic(t *testing.T) {
	table, err := Parse([]byte(`
tiers:
  - name: shiny
    weight: 1
    items: [gem]
  - name: dull
    weight: 9
    items: [rock, stick]
`))
	require.NoError(t, err)

	a := table.Draw(rand.New(rand.NewSource(42)))
	b := table.Draw(rand.New(rand.NewSource(42)))
	require.Equal(t, a, b)
}

func TestDrawRespectsWeights(t *testing.T) {
	table, err := Parse([]byte(`
tiers:
  - name: shiny
    weight: 1
    items: [gem]
  - name: dull
    weight: 99
    items: [rock]
`))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		counts[table.Draw(rng).Tier]++
	}

	require.Greater(t, counts["dull"], counts["shiny"])
	// Rough bound: a 1% tier should land well under a tenth of draws.
	require.Less(t, counts["shiny"], 1000)
}
