package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/ontomerge/internal/attribution"
	"github.com/dusk-indust/ontomerge/internal/divergence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	iriQuality = "http://purl.obolibrary.org/obo/PATO_0000001"
	iriEntity  = "http://purl.obolibrary.org/obo/BFO_0000001"
	iriWater   = "http://purl.obolibrary.org/obo/CHEBI_15377"
)

func twoRuns() map[string]*attribution.Map {
	a := &attribution.Map{OrderKey: "alphabetical:x", Terms: map[string]attribution.TermAttribution{
		iriQuality: {DefiningOntology: "pato"},
		iriEntity:  {DefiningOntology: "bfo"},
		iriWater:   {DefiningOntology: "chebi"},
	}}
	b := &attribution.Map{OrderKey: "size:y", Terms: map[string]attribution.TermAttribution{
		iriQuality: {DefiningOntology: "iao"}, // diverges
		iriEntity:  {DefiningOntology: "bfo"},
		iriWater:   {DefiningOntology: "chebi"},
	}}
	return map[string]*attribution.Map{a.OrderKey: a, b.OrderKey: b}
}

func TestAggregateCounts(t *testing.T) {
	maps := twoRuns()
	rep := divergence.Compare(maps["alphabetical:x"], maps["size:y"])

	outcomes := []OrderOutcome{
		{OrderKey: "alphabetical:x", Strategy: "alphabetical", Status: OutcomeSucceeded},
		{OrderKey: "size:y", Strategy: "size", Status: OutcomeCached},
		{OrderKey: "hierarchy:z", Strategy: "hierarchy", Status: OutcomeFailed, Cause: "timeout"},
		{OrderKey: "exhaustive:w", Strategy: "exhaustive", Status: OutcomeUnschedulable},
	}

	s := Aggregate(maps, []*divergence.Report{rep}, outcomes)

	assert.Equal(t, 4, s.PlannedOrders)
	assert.Equal(t, 2, s.SucceededOrders) // cached counts as succeeded
	assert.Equal(t, 1, s.FailedOrders)
	assert.Equal(t, 1, s.UnschedulableOrders)

	assert.Equal(t, 3, s.TotalTerms)
	assert.Equal(t, 3, s.DefinedTerms)
	assert.Equal(t, 1, s.CrossDefinitions) // quality defined by pato in one run, iao in the other
	assert.Equal(t, 2, s.StableCount)
	assert.Equal(t, 1, s.UnstableCount)

	require.Len(t, s.PerPair, 1)
	require.Len(t, s.PerPair[0].Examples, 1)
	assert.Equal(t, iriQuality, s.PerPair[0].Examples[0].Term)

	require.Len(t, s.TopUnstable, 1)
	assert.Equal(t, UnstableTerm{Term: iriQuality, Occurrences: 1}, s.TopUnstable[0])
}

func TestAggregateDefinerCountsUseDeterministicReference(t *testing.T) {
	s := Aggregate(twoRuns(), nil, nil)

	// "alphabetical:x" sorts before "size:y", so its counts are reported.
	assert.Equal(t, map[string]int{"pato": 1, "bfo": 1, "chebi": 1}, s.DefinerCounts)
}

func TestAggregateForeignDefinitions(t *testing.T) {
	m := &attribution.Map{OrderKey: "a", Terms: map[string]attribution.TermAttribution{
		iriQuality: {DefiningOntology: "pato"}, // PATO term defined by pato: native
		iriEntity:  {DefiningOntology: "ro"},   // BFO term defined by ro: foreign
	}}

	s := Aggregate(map[string]*attribution.Map{"a": m}, nil, nil)
	assert.Equal(t, 1, s.ForeignDefinitions)
}

func TestAggregateZeroRunsIsValid(t *testing.T) {
	outcomes := []OrderOutcome{
		{OrderKey: "alphabetical:x", Strategy: "alphabetical", Status: OutcomeFailed, Cause: "engine-crash"},
	}

	s := Aggregate(nil, nil, outcomes)
	assert.Equal(t, 1, s.PlannedOrders)
	assert.Equal(t, 0, s.SucceededOrders)
	assert.Equal(t, 1, s.FailedOrders)
	assert.Zero(t, s.TotalTerms)
	assert.Empty(t, s.PerPair)
}

func TestAggregateExampleCapAndRanking(t *testing.T) {
	terms := make(map[string]attribution.TermAttribution)
	other := make(map[string]attribution.TermAttribution)
	for i := 0; i < 20; i++ {
		iri := iriQuality + string(rune('a'+i))
		terms[iri] = attribution.TermAttribution{DefiningOntology: "pato"}
		other[iri] = attribution.TermAttribution{DefiningOntology: "iao"}
	}
	a := &attribution.Map{OrderKey: "a", Terms: terms}
	b := &attribution.Map{OrderKey: "b", Terms: other}
	rep := divergence.Compare(a, b)

	s := Aggregate(map[string]*attribution.Map{"a": a, "b": b}, []*divergence.Report{rep}, nil)
	assert.Len(t, s.PerPair[0].Examples, 5)
	assert.Len(t, s.TopUnstable, 10)
}

func TestWriteJSON(t *testing.T) {
	s := Aggregate(twoRuns(), nil, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "cafe1234", s))

	var decoded Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "cafe1234", decoded.CatalogHash)
	assert.NotEmpty(t, decoded.ExportedAt)
	assert.Equal(t, 3, decoded.Summary.TotalTerms)

	// Consumer-contract field names are part of the interface.
	assert.Contains(t, buf.String(), `"total_terms"`)
	assert.Contains(t, buf.String(), `"cross_definitions"`)
	assert.Contains(t, buf.String(), `"per_pair"`)
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "summary.json")
	require.NoError(t, WriteJSONFile(path, "hash", Aggregate(nil, nil, nil)))
	assert.FileExists(t, path)
}
