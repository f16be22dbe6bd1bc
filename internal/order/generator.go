// Package order generates candidate merge orders over an ontology catalog.
// Strategies form a closed enum dispatched to pure key functions; there is no
// strategy interface to implement.
package order

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/ontomerge/internal/catalog"
)

// Strategy tags how a merge order was derived.
type Strategy string

const (
	// StrategyExhaustive enumerates every permutation of the catalog.
	StrategyExhaustive Strategy = "exhaustive"

	// StrategyAlphabetical sorts ontologies by id.
	StrategyAlphabetical Strategy = "alphabetical"

	// StrategyHierarchy sorts by rank tier: foundational ontologies first,
	// then domain, then large reference ontologies, vocabularies last.
	StrategyHierarchy Strategy = "hierarchy"

	// StrategySize sorts by artifact byte size, largest first.
	StrategySize Strategy = "size"
)

// CuratedStrategies are the single-order strategies, in report order.
var CuratedStrategies = []Strategy{StrategyAlphabetical, StrategyHierarchy, StrategySize}

// Rank tiers for StrategyHierarchy. Lower merges earlier.
const (
	RankFoundational = 0
	RankDomain       = 1
	RankReference    = 2
	RankVocabulary   = 3
)

// DefaultExhaustiveCeiling caps exhaustive mode: beyond 8 ontologies the
// permutation count (9! = 362880) stops being a tractable number of engine
// invocations.
const DefaultExhaustiveCeiling = 8

// MergeOrder is one candidate input order: a permutation of the full catalog.
type MergeOrder struct {
	Strategy Strategy `json:"strategy"`
	Sequence []string `json:"sequence"`
}

// Key returns a stable identity for the order, used to index runs and cache
// entries. Two orders with the same sequence but different strategies are
// distinct plans over the same inputs, so the strategy is part of the key.
func (o MergeOrder) Key() string {
	return string(o.Strategy) + ":" + strings.Join(o.Sequence, ">")
}

// Generator produces candidate merge orders for one catalog.
type Generator struct {
	catalog *catalog.Catalog
	ranks   map[string]int
	ceiling int
}

// Option configures a Generator.
type Option func(*Generator)

// WithHierarchyRanks supplies the rank table for StrategyHierarchy. Ontologies
// missing from the table default to RankDomain.
func WithHierarchyRanks(ranks map[string]int) Option {
	return func(g *Generator) { g.ranks = ranks }
}

// WithExhaustiveCeiling overrides the maximum catalog size accepted by
// Exhaustive.
func WithExhaustiveCeiling(n int) Option {
	return func(g *Generator) { g.ceiling = n }
}

// NewGenerator creates a Generator over the given catalog.
func NewGenerator(c *catalog.Catalog, opts ...Option) *Generator {
	g := &Generator{catalog: c, ceiling: DefaultExhaustiveCeiling}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Curated produces one MergeOrder per requested strategy. StrategyExhaustive
// is not a curated strategy and is rejected here; use Exhaustive.
func (g *Generator) Curated(strategies []Strategy) ([]MergeOrder, error) {
	orders := make([]MergeOrder, 0, len(strategies))
	for _, s := range strategies {
		var seq []string
		switch s {
		case StrategyAlphabetical:
			seq = g.alphabetical()
		case StrategyHierarchy:
			seq = g.hierarchical()
		case StrategySize:
			seq = g.bySizeDescending()
		case StrategyExhaustive:
			return nil, fmt.Errorf("order: exhaustive is not a curated strategy")
		default:
			return nil, fmt.Errorf("order: unknown strategy %q", s)
		}
		orders = append(orders, g.emit(s, seq))
	}
	return orders, nil
}

// Exhaustive produces all N! permutations of the catalog. Catalogs larger
// than the configured ceiling are rejected before any work is done.
func (g *Generator) Exhaustive() ([]MergeOrder, error) {
	n := g.catalog.Len()
	if n > g.ceiling {
		return nil, fmt.Errorf("order: exhaustive mode rejected: %d ontologies exceeds ceiling of %d (%d! permutations)",
			n, g.ceiling, n)
	}

	ids := g.catalog.IDs()
	var orders []MergeOrder

	// Heap's algorithm, iterative form.
	c := make([]int, n)
	orders = append(orders, g.emit(StrategyExhaustive, ids))
	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				ids[0], ids[i] = ids[i], ids[0]
			} else {
				ids[c[i]], ids[i] = ids[i], ids[c[i]]
			}
			orders = append(orders, g.emit(StrategyExhaustive, ids))
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
	return orders, nil
}

// emit copies seq into a validated MergeOrder. An invalid sequence is a bug
// in the generator itself, never recoverable input, so it panics.
func (g *Generator) emit(s Strategy, seq []string) MergeOrder {
	out := make([]string, len(seq))
	copy(out, seq)
	if err := g.validate(out); err != nil {
		panic(fmt.Sprintf("order: generator emitted invalid sequence for strategy %s: %v", s, err))
	}
	return MergeOrder{Strategy: s, Sequence: out}
}

// validate checks that seq is a permutation of the catalog ids: no omissions,
// no repeats, nothing foreign.
func (g *Generator) validate(seq []string) error {
	if len(seq) != g.catalog.Len() {
		return fmt.Errorf("sequence has %d ids, catalog has %d", len(seq), g.catalog.Len())
	}
	seen := make(map[string]bool, len(seq))
	for _, id := range seq {
		if _, ok := g.catalog.Get(id); !ok {
			return fmt.Errorf("id %q is not in the catalog", id)
		}
		if seen[id] {
			return fmt.Errorf("id %q repeated", id)
		}
		seen[id] = true
	}
	return nil
}

func (g *Generator) alphabetical() []string {
	ids := g.catalog.IDs()
	sort.Strings(ids)
	return ids
}

func (g *Generator) hierarchical() []string {
	ids := g.catalog.IDs()
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := g.rank(ids[i]), g.rank(ids[j])
		if ri != rj {
			return ri < rj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (g *Generator) bySizeDescending() []string {
	entries := g.catalog.Entries()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ByteSize != entries[j].ByteSize {
			return entries[i].ByteSize > entries[j].ByteSize
		}
		return entries[i].ID < entries[j].ID
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func (g *Generator) rank(id string) int {
	if r, ok := g.ranks[id]; ok {
		return r
	}
	return RankDomain
}
