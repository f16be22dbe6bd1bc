//go:build cgo

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/ontomerge/internal/attribution"
)

// KuzuStore implements the Store interface using KuzuDB as the backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path, so attribution data survives across sessions. KuzuDB
// creates the leaf directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Run(
		order_key STRING,
		strategy STRING,
		statements INT64,
		skipped INT64,
		PRIMARY KEY(order_key)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Term(
		iri STRING,
		PRIMARY KEY(iri)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEFINED_BY(
		FROM Term TO Run,
		definer STRING,
		conflicts STRING
	)`,
}

// InitSchema creates the node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// PutMap stores one attribution map: a Run node plus a DEFINED_BY edge per
// term. Conflict sets are stored "|"-joined on the edge so a single string
// property carries them.
func (s *KuzuStore) PutMap(_ context.Context, strategy string, m *attribution.Map) error {
	if m == nil || m.OrderKey == "" {
		return fmt.Errorf("store: map without order key")
	}
	if err := s.exec(
		`MERGE (r:Run {order_key: $key})
		 SET r.strategy = $strategy, r.statements = $stmts, r.skipped = $skipped`,
		map[string]any{
			"key":      m.OrderKey,
			"strategy": strategy,
			"stmts":    int64(m.Statements),
			"skipped":  int64(m.Skipped),
		},
	); err != nil {
		return err
	}
	for iri, ta := range m.Terms {
		if err := s.exec("MERGE (t:Term {iri: $iri})", map[string]any{"iri": iri}); err != nil {
			return err
		}
		if err := s.exec(
			`MATCH (t:Term {iri: $iri}), (r:Run {order_key: $key})
			 CREATE (t)-[:DEFINED_BY {definer: $definer, conflicts: $conflicts}]->(r)`,
			map[string]any{
				"iri":       iri,
				"key":       m.OrderKey,
				"definer":   ta.DefiningOntology,
				"conflicts": strings.Join(ta.Conflicts, "|"),
			},
		); err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

// GetMap reconstructs the attribution map for one order key, or returns nil
// if no run with that key is stored.
func (s *KuzuStore) GetMap(_ context.Context, orderKey string) (*attribution.Map, error) {
	runs, err := s.query(
		"MATCH (r:Run {order_key: $key}) RETURN r.statements, r.skipped",
		map[string]any{"key": orderKey},
	)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	m := &attribution.Map{
		OrderKey:   orderKey,
		Terms:      make(map[string]attribution.TermAttribution),
		Statements: toInt(runs[0][0]),
		Skipped:    toInt(runs[0][1]),
	}
	rows, err := s.query(
		`MATCH (t:Term)-[d:DEFINED_BY]->(r:Run {order_key: $key})
		 RETURN t.iri, d.definer, d.conflicts`,
		map[string]any{"key": orderKey},
	)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		ta := attribution.TermAttribution{DefiningOntology: toString(row[1])}
		if cs := toString(row[2]); cs != "" {
			ta.Conflicts = strings.Split(cs, "|")
		}
		m.Terms[toString(row[0])] = ta
	}
	return m, nil
}

// ListOrders returns a summary of every stored run, sorted by order key.
func (s *KuzuStore) ListOrders(_ context.Context) ([]RunInfo, error) {
	rows, err := s.query(
		`MATCH (r:Run)
		 OPTIONAL MATCH (t:Term)-[:DEFINED_BY]->(r)
		 RETURN r.order_key, r.strategy, r.statements, r.skipped, count(t)
		 ORDER BY r.order_key`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]RunInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, RunInfo{
			OrderKey:   toString(r[0]),
			Strategy:   toString(r[1]),
			Statements: toInt(r[2]),
			Skipped:    toInt(r[3]),
			Terms:      toInt(r[4]),
		})
	}
	return out, nil
}

// TermDefiners returns the definer label for one term IRI under every stored
// order.
func (s *KuzuStore) TermDefiners(_ context.Context, iri string) (map[string]string, error) {
	rows, err := s.query(
		`MATCH (t:Term {iri: $iri})-[d:DEFINED_BY]->(r:Run)
		 RETURN r.order_key, d.definer, d.conflicts`,
		map[string]any{"iri": iri},
	)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		label := toString(r[1])
		if cs := toString(r[2]); cs != "" {
			label = strings.ReplaceAll(cs, "|", "+")
		}
		out[toString(r[0])] = label
	}
	return out, nil
}

// Stats reports table counts.
func (s *KuzuStore) Stats(_ context.Context) (*StoreStats, error) {
	runs, err := s.countTable("Run")
	if err != nil {
		return nil, err
	}
	terms, err := s.countTable("Term")
	if err != nil {
		return nil, err
	}
	rows, err := s.query("MATCH ()-[d:DEFINED_BY]->() RETURN count(d)", nil)
	if err != nil {
		return nil, err
	}
	edges := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		edges = toInt(rows[0][0])
	}
	return &StoreStats{RunCount: runs, TermCount: terms, AttributionCount: edges}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
