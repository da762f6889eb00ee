// Package gacha implements the weighted random drop table.
//
// The table is embedded at build time, parsed once, and shared as an
// immutable reference. Draw takes a caller-supplied random source so
// tests can pin the outcome.
package gacha

import (
	_ "embed"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tableYAML []byte

// Tier is one rarity band of the drop table.
type Tier struct {
	Name   string   `yaml:"name"`
	Weight int      `yaml:"weight"`
	Items  []string `yaml:"items"`
}

// Drop is the result of one draw.
type Drop struct {
	Tier string
	Item string
}

// Table is the parsed drop table. Immutable after Load.
type Table struct {
	tiers       []Tier
	totalWeight int
}

// Load parses the embedded table.
func Load() (*Table, error) {
	return Parse(tableYAML)
}

// Parse builds a Table from YAML. Every tier needs a positive weight and
// at least one item.
func Parse(data []byte) (*Table, error) {
	var doc struct {
		Tiers []Tier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse drop table: %w", err)
	}
	if len(doc.Tiers) == 0 {
		return nil, fmt.Errorf("drop table has no tiers")
	}

	total := 0
	for _, tier := range doc.Tiers {
		if tier.Weight <= 0 {
			return nil, fmt.Errorf("tier %q: weight must be positive", tier.Name)
		}
		if len(tier.Items) == 0 {
			return nil, fmt.Errorf("tier %q: no items", tier.Name)
		}
		total += tier.Weight
	}

	return &Table{tiers: doc.Tiers, totalWeight: total}, nil
}

// Tiers returns the tiers in declaration order.
func (t *Table) Tiers() []Tier {
	return t.tiers
}

// Draw picks a tier by weight, then an item uniformly within it.
func (t *Table) Draw(rng *rand.Rand) Drop {
	roll := rng.Intn(t.totalWeight)
	for _, tier := range t.tiers {
		if roll < tier.Weight {
			return Drop{
				Tier: tier.Name,
				Item: tier.Items[rng.Intn(len(tier.Items))],
			}
		}
		roll -= tier.Weight
	}
	// Unreachable: roll < totalWeight always lands in a tier.
	last := t.tiers[len(t.tiers)-1]
	return Drop{Tier: last.Name, Item: last.Items[0]}
}
