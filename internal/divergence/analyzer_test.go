package divergence

import (
	"testing"

	"github.com/dusk-indust/ontomerge/internal/attribution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrMap(key string, terms map[string]attribution.TermAttribution) *attribution.Map {
	return &attribution.Map{OrderKey: key, Terms: terms}
}

func defined(id string) attribution.TermAttribution {
	return attribution.TermAttribution{DefiningOntology: id}
}

const (
	iriQuality = "http://purl.obolibrary.org/obo/PATO_0000001"
	iriEntity  = "http://purl.obolibrary.org/obo/BFO_0000001"
	iriICE     = "http://purl.obolibrary.org/obo/IAO_0000030"
	iriPartOf  = "http://purl.obolibrary.org/obo/RO_0000056"
)

func TestCompareMapAgainstItselfIsAllStable(t *testing.T) {
	m := attrMap("a", map[string]attribution.TermAttribution{
		iriQuality: defined("pato"),
		iriEntity:  defined("bfo"),
		iriICE:     {Conflicts: []string{"iao", "obi"}},
		iriPartOf:  {},
	})

	r := Compare(m, m)
	assert.Empty(t, r.UnstableTerms)
	assert.Equal(t, 4, r.StableCount)
	assert.Equal(t, 4, r.TotalTerms)
	assert.Equal(t, 100.0, r.StablePct)
}

func TestCompareSingleDivergence(t *testing.T) {
	// The bfo/ro/iao/pato scenario: "quality" flips definer between runs,
	// everything else is identical.
	a := attrMap("hierarchy:bfo>ro>iao>pato", map[string]attribution.TermAttribution{
		iriQuality: defined("pato"),
		iriEntity:  defined("bfo"),
		iriICE:     defined("iao"),
		iriPartOf:  defined("ro"),
	})
	b := attrMap("size:pato>iao>ro>bfo", map[string]attribution.TermAttribution{
		iriQuality: defined("iao"),
		iriEntity:  defined("bfo"),
		iriICE:     defined("iao"),
		iriPartOf:  defined("ro"),
	})

	r := Compare(a, b)
	require.Len(t, r.UnstableTerms, 1)
	assert.Equal(t, DefinerPair{Ref: "pato", Candidate: "iao"}, r.UnstableTerms[iriQuality])
	assert.Equal(t, r.TotalTerms-1, r.StableCount)
}

func TestCompareIsSymmetricInContent(t *testing.T) {
	a := attrMap("a", map[string]attribution.TermAttribution{
		iriQuality: defined("pato"),
		iriEntity:  defined("bfo"),
	})
	b := attrMap("b", map[string]attribution.TermAttribution{
		iriQuality: defined("iao"),
		iriEntity:  defined("bfo"),
		iriPartOf:  defined("ro"),
	})

	ab := Compare(a, b)
	ba := Compare(b, a)

	assert.Equal(t, ab.StableCount, ba.StableCount)
	assert.Equal(t, ab.UnstableCount, ba.UnstableCount)
	for iri, pair := range ab.UnstableTerms {
		swapped, ok := ba.UnstableTerms[iri]
		require.True(t, ok, "term %s unstable in one direction only", iri)
		assert.Equal(t, pair.Ref, swapped.Candidate)
		assert.Equal(t, pair.Candidate, swapped.Ref)
	}
}

func TestCompareAbsentTermIsUnstable(t *testing.T) {
	a := attrMap("a", map[string]attribution.TermAttribution{
		iriQuality: defined("pato"),
		iriEntity:  defined("bfo"),
	})
	b := attrMap("b", map[string]attribution.TermAttribution{
		iriQuality: defined("pato"),
	})

	r := Compare(a, b)
	require.Len(t, r.UnstableTerms, 1)
	assert.Equal(t, DefinerPair{Ref: "bfo", Candidate: ""}, r.UnstableTerms[iriEntity])
}

func TestCompareConflictSets(t *testing.T) {
	// Same conflict set on both sides is stable; a changed set is not.
	a := attrMap("a", map[string]attribution.TermAttribution{
		iriQuality: {Conflicts: []string{"iao", "pato"}},
		iriEntity:  {Conflicts: []string{"bfo", "ro"}},
	})
	b := attrMap("b", map[string]attribution.TermAttribution{
		iriQuality: {Conflicts: []string{"iao", "pato"}},
		iriEntity:  {Conflicts: []string{"bfo", "iao"}},
	})

	r := Compare(a, b)
	assert.Contains(t, r.StableTerms, iriQuality)
	require.Contains(t, r.UnstableTerms, iriEntity)
	assert.Equal(t, DefinerPair{Ref: "bfo+ro", Candidate: "bfo+iao"}, r.UnstableTerms[iriEntity])
}

func TestCompareUndefinedVersusDefined(t *testing.T) {
	a := attrMap("a", map[string]attribution.TermAttribution{iriQuality: {}})
	b := attrMap("b", map[string]attribution.TermAttribution{iriQuality: defined("pato")})

	r := Compare(a, b)
	assert.Equal(t, DefinerPair{Ref: "", Candidate: "pato"}, r.UnstableTerms[iriQuality])
}

func TestNamespaceBreakdown(t *testing.T) {
	a := attrMap("a", map[string]attribution.TermAttribution{
		iriQuality: defined("pato"),
		iriEntity:  defined("bfo"),
		iriICE:     defined("iao"),
	})
	b := attrMap("b", map[string]attribution.TermAttribution{
		iriQuality: defined("iao"),
		iriEntity:  defined("bfo"),
		iriICE:     defined("iao"),
	})

	r := Compare(a, b)
	assert.Equal(t, NamespaceStats{Unstable: 1}, r.ByNamespace["PATO"])
	assert.Equal(t, NamespaceStats{Stable: 1}, r.ByNamespace["BFO"])
	assert.Equal(t, NamespaceStats{Stable: 1}, r.ByNamespace["IAO"])
}

func TestNamespace(t *testing.T) {
	cases := map[string]string{
		"http://purl.obolibrary.org/obo/BFO_0000001":  "BFO",
		"http://purl.obolibrary.org/obo/CHEBI_15377":  "CHEBI",
		"http://purl.obolibrary.org/obo/pato.owl":     "PATO",
		"http://example.org/vocab#GO_0008150":         "GO",
		"urn:something:opaque":                        "unknown",
	}
	for iri, want := range cases {
		assert.Equal(t, want, Namespace(iri), "namespace of %s", iri)
	}
}

func TestCompareEmptyMaps(t *testing.T) {
	r := Compare(attrMap("a", nil), attrMap("b", nil))
	assert.Zero(t, r.TotalTerms)
	assert.Zero(t, r.StablePct)
}
