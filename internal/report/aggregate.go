// Package report combines per-pair divergence results into the final run
// summary consumed by the CLI and export layers. Pure aggregation: no I/O,
// no retries.
package report

import (
	"sort"
	"strings"

	"github.com/dusk-indust/ontomerge/internal/attribution"
	"github.com/dusk-indust/ontomerge/internal/divergence"
)

// OrderOutcome records how one planned order ended.
type OrderOutcome struct {
	OrderKey string `json:"orderKey"`
	Strategy string `json:"strategy"`
	Status   string `json:"status"` // succeeded | failed | aborted | unschedulable | cached
	Cause    string `json:"cause,omitempty"`
}

// Outcome status values.
const (
	OutcomeSucceeded     = "succeeded"
	OutcomeCached        = "cached"
	OutcomeFailed        = "failed"
	OutcomeAborted       = "aborted"
	OutcomeUnschedulable = "unschedulable"
)

// PairReport summarizes one pairwise comparison, with a few example
// divergences for human inspection.
type PairReport struct {
	RefKey        string                               `json:"refKey"`
	CandidateKey  string                               `json:"candidateKey"`
	StableCount   int                                  `json:"stableCount"`
	UnstableCount int                                  `json:"unstableCount"`
	StablePct     float64                              `json:"stablePct"`
	Examples      []ExampleDivergence                  `json:"examples,omitempty"`
	ByNamespace   map[string]divergence.NamespaceStats `json:"byNamespace,omitempty"`
}

// ExampleDivergence is one concrete unstable term shown in the summary.
type ExampleDivergence struct {
	Term      string `json:"term"`
	Ref       string `json:"ref"`
	Candidate string `json:"candidate"`
}

// UnstableTerm ranks a term by how often it diverged across all compared
// pairs.
type UnstableTerm struct {
	Term        string `json:"term"`
	Occurrences int    `json:"occurrences"`
}

// Summary is the final aggregated record handed to the report consumer.
// Field names follow the consumer contract.
type Summary struct {
	TotalTerms       int `json:"total_terms"`
	DefinedTerms     int `json:"defined_terms"`
	CrossDefinitions int `json:"cross_definitions"`
	StableCount      int `json:"stable_count"`
	UnstableCount    int `json:"unstable_count"`

	// ForeignDefinitions counts terms whose IRI namespace differs from
	// their recorded definer (a BFO term defined by ro, say) in the
	// reference run.
	ForeignDefinitions int `json:"foreign_definitions"`

	PerPair     []PairReport   `json:"per_pair"`
	TopUnstable []UnstableTerm `json:"most_unstable_terms,omitempty"`

	// DefinerCounts tallies defined terms per ontology in the reference run.
	DefinerCounts map[string]int `json:"definer_counts,omitempty"`

	PlannedOrders       int `json:"planned_orders"`
	SucceededOrders     int `json:"succeeded_orders"`
	FailedOrders        int `json:"failed_orders"`
	UnschedulableOrders int `json:"unschedulable_orders"`

	Outcomes []OrderOutcome `json:"outcomes"`
}

// maxExamples bounds how many divergences each pair report carries.
const maxExamples = 5

// maxTopUnstable bounds the ranked unstable-term list.
const maxTopUnstable = 10

// Aggregate builds the Summary. maps holds the successful runs keyed by
// order key; reports the pairwise comparisons computed over them; outcomes
// one entry per planned order so partial results stay distinguishable from
// complete ones. A run with zero successes produces a valid, mostly-zero
// summary rather than an error.
func Aggregate(maps map[string]*attribution.Map, reports []*divergence.Report, outcomes []OrderOutcome) *Summary {
	s := &Summary{
		PlannedOrders: len(outcomes),
		Outcomes:      outcomes,
	}

	for _, o := range outcomes {
		switch o.Status {
		case OutcomeSucceeded, OutcomeCached:
			s.SucceededOrders++
		case OutcomeUnschedulable:
			s.UnschedulableOrders++
		default:
			s.FailedOrders++
		}
	}

	s.TotalTerms, s.DefinedTerms, s.CrossDefinitions = termUniverse(maps)

	if ref := referenceMap(maps); ref != nil {
		s.DefinerCounts = ref.DefinerCounts()
		s.ForeignDefinitions = countForeignDefinitions(ref)
	}

	unstableFreq := make(map[string]int)
	for _, r := range reports {
		s.StableCount += r.StableCount
		s.UnstableCount += r.UnstableCount
		s.PerPair = append(s.PerPair, pairReport(r))
		for iri := range r.UnstableTerms {
			unstableFreq[iri]++
		}
	}
	s.TopUnstable = rankUnstable(unstableFreq)

	return s
}

// termUniverse computes the union-of-terms statistics across all runs:
// total distinct terms, terms with at least one definer anywhere, and
// cross-definitions (terms whose union of definers across runs has size > 1).
func termUniverse(maps map[string]*attribution.Map) (total, defined, cross int) {
	definers := make(map[string]map[string]bool)
	for _, m := range maps {
		for iri, attr := range m.Terms {
			set, ok := definers[iri]
			if !ok {
				set = make(map[string]bool)
				definers[iri] = set
			}
			if attr.DefiningOntology != "" {
				set[attr.DefiningOntology] = true
			}
			for _, d := range attr.Conflicts {
				set[d] = true
			}
		}
	}

	total = len(definers)
	for _, set := range definers {
		if len(set) > 0 {
			defined++
		}
		if len(set) > 1 {
			cross++
		}
	}
	return total, defined, cross
}

// referenceMap picks the run with the smallest order key as the reference
// for per-definer statistics, so the choice is deterministic regardless of
// completion order.
func referenceMap(maps map[string]*attribution.Map) *attribution.Map {
	var refKey string
	for key := range maps {
		if refKey == "" || key < refKey {
			refKey = key
		}
	}
	if refKey == "" {
		return nil
	}
	return maps[refKey]
}

func countForeignDefinitions(m *attribution.Map) int {
	n := 0
	for iri, attr := range m.Terms {
		if attr.DefiningOntology == "" {
			continue
		}
		ns := divergence.Namespace(iri)
		if ns != "unknown" && !strings.EqualFold(ns, attr.DefiningOntology) {
			n++
		}
	}
	return n
}

func pairReport(r *divergence.Report) PairReport {
	pr := PairReport{
		RefKey:        r.RefKey,
		CandidateKey:  r.CandidateKey,
		StableCount:   r.StableCount,
		UnstableCount: r.UnstableCount,
		StablePct:     r.StablePct,
		ByNamespace:   r.ByNamespace,
	}

	terms := make([]string, 0, len(r.UnstableTerms))
	for iri := range r.UnstableTerms {
		terms = append(terms, iri)
	}
	sort.Strings(terms)
	for _, iri := range terms {
		if len(pr.Examples) == maxExamples {
			break
		}
		pair := r.UnstableTerms[iri]
		pr.Examples = append(pr.Examples, ExampleDivergence{
			Term:      iri,
			Ref:       pair.Ref,
			Candidate: pair.Candidate,
		})
	}
	return pr
}

func rankUnstable(freq map[string]int) []UnstableTerm {
	ranked := make([]UnstableTerm, 0, len(freq))
	for iri, n := range freq {
		ranked = append(ranked, UnstableTerm{Term: iri, Occurrences: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Occurrences != ranked[j].Occurrences {
			return ranked[i].Occurrences > ranked[j].Occurrences
		}
		return ranked[i].Term < ranked[j].Term
	})
	if len(ranked) > maxTopUnstable {
		ranked = ranked[:maxTopUnstable]
	}
	return ranked
}
