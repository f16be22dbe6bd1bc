package attribution

import "strings"

// Predicate and object IRIs recognized during extraction. ROBOT's
// --annotate-defined-by writes oboInOwl:isDefinedBy; some toolchains use
// rdfs:isDefinedBy, so both spellings are accepted.
const (
	predDefinedByOBO  = "http://www.geneontology.org/formats/oboInOwl#isDefinedBy"
	predDefinedByRDFS = "http://www.w3.org/2000/01/rdf-schema#isDefinedBy"
	predRDFType       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	objOWLClass       = "http://www.w3.org/2002/07/owl#Class"
)

// statement is one parsed N-Triples line. Object holds either an IRI or the
// unquoted literal value.
type statement struct {
	Subject      string
	Predicate    string
	Object       string
	ObjectIsIRI  bool
	SubjectBlank bool
}

// parseStatement parses one N-Triples line of the form
//
//	<subject> <predicate> <object> .
//	<subject> <predicate> "literal" .
//	_:b0 <predicate> <object> .
//
// The bool result distinguishes "skip this line silently" (blank line or
// comment) from a parse attempt; the error-shaped second bool reports a
// malformed statement. Blank-node handling and full literal escapes are
// deliberately minimal: defined-by annotations always carry IRI or plain
// literal objects.
func parseStatement(line string) (stmt statement, blank bool, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return statement{}, true, false
	}
	if !strings.HasSuffix(line, ".") {
		return statement{}, false, false
	}
	rest := strings.TrimSpace(strings.TrimSuffix(line, "."))

	stmt.Subject, stmt.SubjectBlank, rest, ok = parseTerm(rest)
	if !ok {
		return statement{}, false, false
	}

	var predBlank bool
	var predIRI string
	predIRI, predBlank, rest, ok = parseTerm(rest)
	if !ok || predBlank {
		return statement{}, false, false
	}
	stmt.Predicate = predIRI

	rest = strings.TrimSpace(rest)
	switch {
	case strings.HasPrefix(rest, "<"):
		end := strings.Index(rest, ">")
		if end < 0 || strings.TrimSpace(rest[end+1:]) != "" {
			return statement{}, false, false
		}
		stmt.Object = rest[1:end]
		stmt.ObjectIsIRI = true
	case strings.HasPrefix(rest, `"`):
		end := closingQuote(rest)
		if end < 0 {
			return statement{}, false, false
		}
		// Trailing language tag or datatype is tolerated and dropped.
		stmt.Object = rest[1:end]
	case strings.HasPrefix(rest, "_:"):
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return statement{}, false, false
		}
		stmt.Object = fields[0]
	default:
		return statement{}, false, false
	}

	return stmt, false, true
}

// parseTerm consumes one IRI or blank-node label from the front of s.
func parseTerm(s string) (term string, isBlank bool, rest string, ok bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") {
		end := strings.Index(s, ">")
		if end < 0 {
			return "", false, "", false
		}
		return s[1:end], false, s[end+1:], true
	}
	if strings.HasPrefix(s, "_:") {
		sp := strings.IndexAny(s, " \t")
		if sp < 0 {
			return "", true, "", false
		}
		return s[:sp], true, s[sp:], true
	}
	return "", false, "", false
}

// closingQuote finds the index of the unescaped closing quote of a literal
// starting at s[0] == '"'.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
