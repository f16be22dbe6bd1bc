package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ontomerge/internal/attribution"
)

const (
	iriContinuant = "http://purl.obolibrary.org/obo/BFO_0000002"
	iriQuality    = "http://purl.obolibrary.org/obo/PATO_0000001"
)

func sampleMap(orderKey, qualityDefiner string) *attribution.Map {
	return &attribution.Map{
		OrderKey: orderKey,
		Terms: map[string]attribution.TermAttribution{
			iriContinuant: {DefiningOntology: "bfo"},
			iriQuality:    {DefiningOntology: qualityDefiner},
		},
		Statements: 100,
		Skipped:    1,
	}
}

func TestPutAndGetMap(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.InitSchema(ctx))

	m := sampleMap("alphabetical:bfo>iao>pato", "pato")
	require.NoError(t, s.PutMap(ctx, "alphabetical", m))

	got, err := s.GetMap(ctx, m.OrderKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.Terms, got.Terms)

	missing, err := s.GetMap(ctx, "size:pato>iao>bfo")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPutMapRejectsEmptyKey(t *testing.T) {
	s := NewMemStore()
	err := s.PutMap(context.Background(), "alphabetical", &attribution.Map{})
	assert.Error(t, err)
}

func TestListOrdersSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.PutMap(ctx, "size", sampleMap("size:pato>bfo", "pato")))
	require.NoError(t, s.PutMap(ctx, "alphabetical", sampleMap("alphabetical:bfo>pato", "pato")))

	infos, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alphabetical:bfo>pato", infos[0].OrderKey)
	assert.Equal(t, "alphabetical", infos[0].Strategy)
	assert.Equal(t, 2, infos[0].Terms)
	assert.Equal(t, "size:pato>bfo", infos[1].OrderKey)
}

func TestTermDefinersAcrossOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.PutMap(ctx, "alphabetical", sampleMap("alphabetical:bfo>pato", "iao")))
	require.NoError(t, s.PutMap(ctx, "size", sampleMap("size:pato>bfo", "pato")))

	definers, err := s.TermDefiners(ctx, iriQuality)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"alphabetical:bfo>pato": "iao",
		"size:pato>bfo":         "pato",
	}, definers)

	none, err := s.TermDefiners(ctx, "http://example.org/absent")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTermDefinersConflictLabel(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	m := &attribution.Map{
		OrderKey: "size:iao>pato",
		Terms: map[string]attribution.TermAttribution{
			iriQuality: {Conflicts: []string{"iao", "pato"}},
		},
	}
	require.NoError(t, s.PutMap(ctx, "size", m))

	definers, err := s.TermDefiners(ctx, iriQuality)
	require.NoError(t, err)
	assert.Equal(t, "iao+pato", definers["size:iao>pato"])
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.PutMap(ctx, "alphabetical", sampleMap("alphabetical:bfo>pato", "pato")))
	require.NoError(t, s.PutMap(ctx, "size", sampleMap("size:pato>bfo", "pato")))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RunCount)
	assert.Equal(t, 2, stats.TermCount, "term universe deduplicates across orders")
	assert.Equal(t, 4, stats.AttributionCount)
}
