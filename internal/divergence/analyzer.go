// Package divergence compares attribution maps from different merge orders
// and classifies each term as stable or unstable. The comparison is a pure
// set computation: it is itself order-independent even though its subject
// matter is order sensitivity.
package divergence

import (
	"sort"
	"strings"

	"github.com/dusk-indust/ontomerge/internal/attribution"
)

// DefinerPair records the two sides of an unstable term. Empty string means
// the term was absent or undefined on that side; conflicting definers are
// rendered as a "+"-joined sorted set so conflict-set changes are visible.
type DefinerPair struct {
	Ref       string `json:"ref"`
	Candidate string `json:"candidate"`
}

// NamespaceStats breaks stability down by term IRI namespace (the OBO prefix
// for OBO-style IRIs, e.g. "BFO" for …/obo/BFO_0000001).
type NamespaceStats struct {
	Stable   int `json:"stable"`
	Unstable int `json:"unstable"`
}

// Report is the immutable result of comparing two attribution maps.
type Report struct {
	RefKey       string `json:"refKey"`
	CandidateKey string `json:"candidateKey"`

	// StableTerms lists IRIs attributed identically on both sides, sorted.
	StableTerms []string `json:"stableTerms"`

	// UnstableTerms maps each diverging IRI to its two definers.
	UnstableTerms map[string]DefinerPair `json:"unstableTerms"`

	TotalTerms    int     `json:"totalTerms"`
	StableCount   int     `json:"stableCount"`
	UnstableCount int     `json:"unstableCount"`
	StablePct     float64 `json:"stablePct"`

	ByNamespace map[string]NamespaceStats `json:"byNamespace"`
}

// Compare classifies every term in the union of both maps. A term is stable
// when both sides agree on the definer, including agreeing on the same
// conflict set; anything else, including absence from one side, is unstable.
// Compare(m, m) yields zero unstable terms, and swapping the arguments swaps
// the pair fields without changing which terms are unstable.
func Compare(ref, candidate *attribution.Map) *Report {
	r := &Report{
		RefKey:        ref.OrderKey,
		CandidateKey:  candidate.OrderKey,
		UnstableTerms: make(map[string]DefinerPair),
		ByNamespace:   make(map[string]NamespaceStats),
	}

	union := make(map[string]bool, len(ref.Terms))
	for iri := range ref.Terms {
		union[iri] = true
	}
	for iri := range candidate.Terms {
		union[iri] = true
	}

	for iri := range union {
		refAttr, inRef := ref.Terms[iri]
		candAttr, inCand := candidate.Terms[iri]

		stable := inRef && inCand && sameAttribution(refAttr, candAttr)
		ns := Namespace(iri)
		stats := r.ByNamespace[ns]

		if stable {
			r.StableTerms = append(r.StableTerms, iri)
			stats.Stable++
		} else {
			r.UnstableTerms[iri] = DefinerPair{
				Ref:       definerLabel(refAttr, inRef),
				Candidate: definerLabel(candAttr, inCand),
			}
			stats.Unstable++
		}
		r.ByNamespace[ns] = stats
	}

	sort.Strings(r.StableTerms)
	r.StableCount = len(r.StableTerms)
	r.UnstableCount = len(r.UnstableTerms)
	r.TotalTerms = r.StableCount + r.UnstableCount
	if r.TotalTerms > 0 {
		r.StablePct = float64(r.StableCount) / float64(r.TotalTerms) * 100
	}
	return r
}

// sameAttribution compares definer and conflict set for equality.
func sameAttribution(a, b attribution.TermAttribution) bool {
	if a.DefiningOntology != b.DefiningOntology {
		return false
	}
	if len(a.Conflicts) != len(b.Conflicts) {
		return false
	}
	for i, d := range a.Conflicts {
		if b.Conflicts[i] != d {
			return false
		}
	}
	return true
}

// definerLabel renders one side of a DefinerPair.
func definerLabel(t attribution.TermAttribution, present bool) string {
	switch {
	case !present, t.Undefined():
		return ""
	case t.Conflicting():
		return strings.Join(t.Conflicts, "+")
	default:
		return t.DefiningOntology
	}
}

// Namespace extracts the namespace of a term IRI: the uppercased OBO prefix
// for OBO purl IRIs, otherwise the last path-ish segment's prefix, otherwise
// "unknown".
func Namespace(iri string) string {
	if idx := strings.Index(iri, "/obo/"); idx >= 0 {
		rest := iri[idx+len("/obo/"):]
		if u := strings.IndexAny(rest, "_#"); u > 0 {
			return strings.ToUpper(rest[:u])
		}
		return strings.ToUpper(strings.TrimSuffix(rest, ".owl"))
	}
	if idx := strings.LastIndexAny(iri, "/#"); idx >= 0 && idx+1 < len(iri) {
		frag := iri[idx+1:]
		if u := strings.Index(frag, "_"); u > 0 {
			return strings.ToUpper(frag[:u])
		}
	}
	return "unknown"
}
