// Package store persists attribution maps in a queryable backend so terms
// can be traced across merge orders after a run completes.
package store

import (
	"context"
	"io"

	"github.com/dusk-indust/ontomerge/internal/attribution"
)

// Store is the interface for the attribution backend.
// Implementations: KuzuStore (production), MemStore (testing).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	PutMap(ctx context.Context, strategy string, m *attribution.Map) error

	// Read operations.
	GetMap(ctx context.Context, orderKey string) (*attribution.Map, error)
	ListOrders(ctx context.Context) ([]RunInfo, error)
	TermDefiners(ctx context.Context, iri string) (map[string]string, error)

	// Stats.
	Stats(ctx context.Context) (*StoreStats, error)
}

// RunInfo summarizes one stored attribution map.
type RunInfo struct {
	OrderKey   string `json:"orderKey"`
	Strategy   string `json:"strategy"`
	Terms      int    `json:"terms"`
	Statements int    `json:"statements"`
	Skipped    int    `json:"skipped"`
}

// StoreStats reports backend contents.
type StoreStats struct {
	RunCount         int `json:"runCount"`
	TermCount        int `json:"termCount"`
	AttributionCount int `json:"attributionCount"`
}
