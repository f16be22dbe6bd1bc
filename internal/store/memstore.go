package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dusk-indust/ontomerge/internal/attribution"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu         sync.RWMutex
	maps       map[string]*attribution.Map // key: order key
	strategies map[string]string           // order key -> strategy
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		maps:       make(map[string]*attribution.Map),
		strategies: make(map[string]string),
	}
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error { return nil }

// PutMap stores the attribution map keyed by its order key, replacing any
// previous map for the same order.
func (m *MemStore) PutMap(_ context.Context, strategy string, am *attribution.Map) error {
	if am == nil || am.OrderKey == "" {
		return fmt.Errorf("store: map without order key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maps[am.OrderKey] = am
	m.strategies[am.OrderKey] = strategy
	return nil
}

// GetMap returns the map for the order key, or nil if not stored.
func (m *MemStore) GetMap(_ context.Context, orderKey string) (*attribution.Map, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maps[orderKey], nil
}

// ListOrders returns a summary of every stored map, sorted by order key.
func (m *MemStore) ListOrders(_ context.Context) ([]RunInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RunInfo, 0, len(m.maps))
	for key, am := range m.maps {
		out = append(out, RunInfo{
			OrderKey:   key,
			Strategy:   m.strategies[key],
			Terms:      len(am.Terms),
			Statements: am.Statements,
			Skipped:    am.Skipped,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderKey < out[j].OrderKey })
	return out, nil
}

// TermDefiners returns, for one term IRI, the definer label under every
// stored order. Orders where the term never appears are absent from the map.
func (m *MemStore) TermDefiners(_ context.Context, iri string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string)
	for key, am := range m.maps {
		if ta, ok := am.Terms[iri]; ok {
			out[key] = definerLabel(ta)
		}
	}
	return out, nil
}

// Stats reports counts over the stored maps. TermCount is the size of the
// term universe across all orders.
func (m *MemStore) Stats(_ context.Context) (*StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	universe := make(map[string]struct{})
	attributions := 0
	for _, am := range m.maps {
		for iri := range am.Terms {
			universe[iri] = struct{}{}
		}
		attributions += len(am.Terms)
	}
	return &StoreStats{
		RunCount:         len(m.maps),
		TermCount:        len(universe),
		AttributionCount: attributions,
	}, nil
}

// definerLabel renders an attribution the way queries report it: the single
// definer, a "+"-joined conflict set, or empty for undefined.
func definerLabel(ta attribution.TermAttribution) string {
	if ta.Conflicting() {
		return strings.Join(ta.Conflicts, "+")
	}
	return ta.DefiningOntology
}
