//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ontomerge/internal/catalog"
	"github.com/dusk-indust/ontomerge/internal/config"
	"github.com/dusk-indust/ontomerge/internal/pipeline"
	"github.com/dusk-indust/ontomerge/internal/report"
	"github.com/dusk-indust/ontomerge/internal/runcache"
	"github.com/dusk-indust/ontomerge/internal/store"
)

// ntriplesEngine stands in for ROBOT: it emits one owned term per input and
// a shared term attributed to the last input, so later inputs win the shared
// definition exactly like a real merge.
type ntriplesEngine struct{}

func (ntriplesEngine) Merge(_ context.Context, inputs []string, output string) error {
	var b strings.Builder
	last := ""
	for _, in := range inputs {
		id := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(in), ".owl"), "-base")
		fmt.Fprintf(&b, "<http://purl.obolibrary.org/obo/%s_0000001> <http://www.geneontology.org/formats/oboInOwl#isDefinedBy> <http://purl.obolibrary.org/obo/%s.owl> .\n",
			strings.ToUpper(id), id)
		last = id
	}
	fmt.Fprintf(&b, "<http://purl.obolibrary.org/obo/BFO_0000023> <http://www.geneontology.org/formats/oboInOwl#isDefinedBy> <http://purl.obolibrary.org/obo/%s.owl> .\n", last)
	return os.WriteFile(output, []byte(b.String()), 0o644)
}

func fixtureRoot() string {
	return filepath.Join("..", "..", "testdata", "fixtures", "obo")
}

// TestAnalysis_E2E runs the whole flow the CLI wires together: config load,
// catalog resolution from the fixture directory, pipeline execution with
// cache and store, and JSON export.
func TestAnalysis_E2E(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()

	cfg, err := config.Load(fixtureRoot())
	require.NoError(t, err)
	cfg.ApplyDefaults(workDir)
	cfg.DataDir = fixtureRoot()

	provider := &catalog.DirProvider{Dir: cfg.DataDir}
	cat, err := catalog.FromProvider(ctx, provider, cfg.Ontologies)
	require.NoError(t, err)
	require.Equal(t, 3, cat.Len())

	// The base release of ro should win over the full file.
	ro, ok := cat.Get("ro")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ro.LocalPath, "ro-base.owl"))

	memStore := store.NewMemStore()
	opts := pipeline.Options{
		Catalog:        cat,
		Engine:         ntriplesEngine{},
		Workers:        cfg.Workers,
		MemoryBudget:   cfg.MemoryBudgetBytes(),
		CostMultiplier: cfg.CostMultiplier,
		ArtifactDir:    filepath.Join(workDir, "results"),
		Cache:          runcache.New(filepath.Join(workDir, "cache")),
		Store:          memStore,
	}

	p, err := pipeline.New(opts)
	require.NoError(t, err)
	res, err := p.Run(ctx)
	p.Close()
	require.NoError(t, err)

	require.Equal(t, 3, res.Summary.SucceededOrders)
	assert.Equal(t, 4, res.Summary.TotalTerms)
	assert.GreaterOrEqual(t, res.Summary.UnstableCount, 1,
		"the shared term must diverge between alphabetical and size orders")

	// Export and re-read the summary the way a consumer would.
	outPath := filepath.Join(workDir, "summary.json")
	require.NoError(t, report.WriteJSONFile(outPath, res.CatalogHash, res.Summary))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var decoded struct {
		CatalogHash string `json:"catalogHash"`
		Summary     struct {
			TotalTerms   int `json:"total_terms"`
			DefinedTerms int `json:"defined_terms"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, res.CatalogHash, decoded.CatalogHash)
	assert.Equal(t, res.Summary.TotalTerms, decoded.Summary.TotalTerms)

	// Second run over the same catalog must be served from cache.
	p2, err := pipeline.New(opts)
	require.NoError(t, err)
	res2, err := p2.Run(ctx)
	p2.Close()
	require.NoError(t, err)
	for _, o := range res2.Outcomes {
		assert.Equal(t, report.OutcomeCached, o.Status)
	}
}
