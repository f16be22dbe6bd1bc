package attribution

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// DefaultSkipThreshold is the highest tolerated ratio of malformed to total
// statements. Above it the artifact is considered corrupt rather than merely
// noisy.
const DefaultSkipThreshold = 0.01

// CorruptionError reports an artifact whose malformed-statement rate exceeds
// the configured threshold. No Map is produced alongside it.
type CorruptionError struct {
	Skipped    int
	Statements int
	Rate       float64
	Threshold  float64
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("attribution: artifact corrupt: %d of %d statements malformed (%.2f%% > %.2f%% threshold)",
		e.Skipped, e.Statements, e.Rate*100, e.Threshold*100)
}

// Resolver maps a defined-by annotation object (an ontology IRI or plain
// label) to a catalog ontology id.
type Resolver func(object string) string

// DefaultResolver handles the common OBO shapes:
// "http://purl.obolibrary.org/obo/pato.owl" → "pato",
// "http://purl.obolibrary.org/obo/pato-base.owl" → "pato", and plain labels
// pass through lowercased.
func DefaultResolver(object string) string {
	id := object
	if strings.Contains(id, "/") {
		id = path.Base(id)
	}
	id = strings.TrimSuffix(id, ".owl")
	id = strings.TrimSuffix(id, "-base")
	return strings.ToLower(id)
}

// Extractor streams merge artifacts and accumulates term attribution.
// The zero value uses DefaultSkipThreshold and DefaultResolver.
type Extractor struct {
	// Threshold overrides DefaultSkipThreshold when positive.
	Threshold float64

	// Resolve overrides DefaultResolver when non-nil.
	Resolve Resolver
}

// Extract streams the artifact at artifactPath. See ExtractFrom.
func (x *Extractor) Extract(artifactPath, orderKey string) (*Map, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("attribution: open artifact: %w", err)
	}
	defer f.Close()
	return x.ExtractFrom(f, orderKey)
}

// ExtractFrom reads r as a lazy sequence of N-Triples statements, recording
// defined-by annotations per term and class declarations for terms that may
// carry no annotation at all. Statements about blank nodes are serialization
// plumbing (axiom reification, list cells) and are ignored without counting
// as malformed. Malformed statements are skipped and counted; a skip rate
// over the threshold fails the whole extraction with CorruptionError.
func (x *Extractor) ExtractFrom(r io.Reader, orderKey string) (*Map, error) {
	threshold := x.Threshold
	if threshold <= 0 {
		threshold = DefaultSkipThreshold
	}
	resolve := x.Resolve
	if resolve == nil {
		resolve = DefaultResolver
	}

	acc := newAccumulator()
	statements, skipped := 0, 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		stmt, blank, ok := parseStatement(scanner.Text())
		if blank {
			continue
		}
		statements++
		if !ok {
			skipped++
			continue
		}
		if stmt.SubjectBlank {
			continue
		}

		switch stmt.Predicate {
		case predDefinedByOBO, predDefinedByRDFS:
			acc.addDefiner(stmt.Subject, resolve(stmt.Object))
		case predRDFType:
			if stmt.ObjectIsIRI && stmt.Object == objOWLClass {
				acc.addTerm(stmt.Subject)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("attribution: read artifact: %w", err)
	}

	if statements > 0 {
		rate := float64(skipped) / float64(statements)
		if rate > threshold {
			return nil, &CorruptionError{
				Skipped:    skipped,
				Statements: statements,
				Rate:       rate,
				Threshold:  threshold,
			}
		}
	}

	return &Map{
		OrderKey:   orderKey,
		Terms:      acc.freeze(),
		Statements: statements,
		Skipped:    skipped,
	}, nil
}
