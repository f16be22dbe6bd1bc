// Package attribution recovers term → defining-ontology maps from merge
// artifacts by streaming them statement by statement. Artifacts can run to
// hundreds of gigabytes, so nothing here materializes a full graph.
package attribution

import "sort"

// TermAttribution records how one term is attributed in a merge artifact.
//
// Exactly one distinct defined-by annotation yields a definite
// DefiningOntology. More than one yields a non-empty Conflicts set and an
// empty DefiningOntology: the artifact itself recorded conflicting metadata,
// which is surfaced rather than resolved (consumers needing a single definer
// must apply their own tie-break). A term with no defined-by annotation at
// all has both fields empty.
type TermAttribution struct {
	DefiningOntology string   `json:"definingOntology,omitempty"`
	Conflicts        []string `json:"conflictingAnnotations,omitempty"`
}

// Undefined reports whether the term carried no defined-by annotation.
func (t TermAttribution) Undefined() bool {
	return t.DefiningOntology == "" && len(t.Conflicts) == 0
}

// Conflicting reports whether the artifact recorded more than one definer.
func (t TermAttribution) Conflicting() bool {
	return len(t.Conflicts) > 0
}

// Map is the write-once result of extracting one merge artifact.
type Map struct {
	// OrderKey identifies the merge order that produced the artifact.
	OrderKey string `json:"orderKey"`

	// Terms maps term IRI to its attribution.
	Terms map[string]TermAttribution `json:"terms"`

	// Statements is the number of statements considered (well-formed plus
	// skipped), and Skipped how many were malformed and dropped.
	Statements int `json:"statements"`
	Skipped    int `json:"skipped"`
}

// DefinedCount returns how many terms have a definite or conflicting definer.
func (m *Map) DefinedCount() int {
	n := 0
	for _, t := range m.Terms {
		if !t.Undefined() {
			n++
		}
	}
	return n
}

// DefinerCounts tallies terms per defining ontology. Conflicting terms count
// once per recorded definer.
func (m *Map) DefinerCounts() map[string]int {
	counts := make(map[string]int)
	for _, t := range m.Terms {
		if t.DefiningOntology != "" {
			counts[t.DefiningOntology]++
		}
		for _, d := range t.Conflicts {
			counts[d]++
		}
	}
	return counts
}

// accumulator gathers definers per term during extraction and freezes them
// into TermAttribution values at the end.
type accumulator struct {
	definers map[string]map[string]bool // term IRI → definer set
	terms    map[string]bool            // all term IRIs seen
}

func newAccumulator() *accumulator {
	return &accumulator{
		definers: make(map[string]map[string]bool),
		terms:    make(map[string]bool),
	}
}

func (a *accumulator) addTerm(iri string) {
	a.terms[iri] = true
}

func (a *accumulator) addDefiner(iri, definer string) {
	a.terms[iri] = true
	set, ok := a.definers[iri]
	if !ok {
		set = make(map[string]bool, 1)
		a.definers[iri] = set
	}
	set[definer] = true
}

func (a *accumulator) freeze() map[string]TermAttribution {
	out := make(map[string]TermAttribution, len(a.terms))
	for iri := range a.terms {
		set := a.definers[iri]
		switch len(set) {
		case 0:
			out[iri] = TermAttribution{}
		case 1:
			for d := range set {
				out[iri] = TermAttribution{DefiningOntology: d}
			}
		default:
			conflicts := make([]string, 0, len(set))
			for d := range set {
				conflicts = append(conflicts, d)
			}
			sort.Strings(conflicts)
			out[iri] = TermAttribution{Conflicts: conflicts}
		}
	}
	return out
}
