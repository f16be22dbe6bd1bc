package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dusk-indust/ontomerge/internal/catalog"
	"github.com/dusk-indust/ontomerge/internal/config"
	"github.com/dusk-indust/ontomerge/internal/merge"
	"github.com/dusk-indust/ontomerge/internal/order"
	"github.com/dusk-indust/ontomerge/internal/pipeline"
	"github.com/dusk-indust/ontomerge/internal/report"
	"github.com/dusk-indust/ontomerge/internal/runcache"
)

// loadCatalog resolves the configured ontology ids against the data
// directory.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	if len(cfg.Ontologies) == 0 {
		return nil, fmt.Errorf("no ontologies configured; set 'ontologies' in ontomerge.yml or pass -ontologies")
	}
	provider := &catalog.DirProvider{Dir: cfg.DataDir}
	cat, err := catalog.FromProvider(ctx, provider, cfg.Ontologies)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog: %w", err)
	}
	return cat, nil
}

// pipelineOptions wires the configuration into pipeline options.
func pipelineOptions(cfg *config.Config, cat *catalog.Catalog) pipeline.Options {
	strategies := make([]order.Strategy, 0, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		strategies = append(strategies, order.Strategy(s))
	}
	return pipeline.Options{
		Catalog:        cat,
		Engine:         &merge.RobotEngine{Binary: cfg.RobotBinary, TrimAxioms: cfg.TrimAxioms},
		Strategies:     strategies,
		Workers:        cfg.Workers,
		MemoryBudget:   cfg.MemoryBudgetBytes(),
		CostMultiplier: cfg.CostMultiplier,
		Executor: merge.ExecutorConfig{
			MaxRetries: cfg.MaxRetries,
			Timeout:    cfg.Timeout(),
		},
		SkipThreshold:     cfg.SkipRateThreshold,
		HierarchyRanks:    cfg.HierarchyRanks,
		ExhaustiveCeiling: cfg.ExhaustiveCeiling,
		ArtifactDir:       cfg.ArtifactDir,
		Cache:             runcache.New(cfg.CacheDir),
	}
}

// runAnalyze performs a one-shot analysis and writes the summary JSON.
func runAnalyze(ctx context.Context, cfg *config.Config, outPath string) error {
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	opts := pipelineOptions(cfg, cat)
	st, err := newAttributionStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	opts.Store = st
	if err := st.InitSchema(ctx); err != nil {
		return err
	}

	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	// Drain progress events; the channel is closed by p.Close below.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range p.Progress() {
			if cfg.Verbose {
				fmt.Println(pipeline.FormatProgress(ev))
			}
		}
	}()

	res, runErr := p.Run(ctx)
	p.Close()
	<-done
	if runErr != nil {
		return runErr
	}

	if outPath == "" {
		outPath = filepath.Join(cfg.ArtifactDir, "summary.json")
	}
	if err := report.WriteJSONFile(outPath, res.CatalogHash, res.Summary); err != nil {
		return err
	}

	printSummary(res)
	fmt.Printf("\nSummary written to %s\n", outPath)
	return nil
}

// printSummary renders the headline numbers of a completed run.
func printSummary(res *pipeline.Result) {
	s := res.Summary
	fmt.Printf("Catalog %s: %d/%d orders succeeded", res.CatalogHash, s.SucceededOrders, s.PlannedOrders)
	if s.FailedOrders > 0 {
		fmt.Printf(" (%d failed)", s.FailedOrders)
	}
	if s.UnschedulableOrders > 0 {
		fmt.Printf(" (%d unschedulable)", s.UnschedulableOrders)
	}
	fmt.Println()

	fmt.Printf("  terms: %d total, %d defined, %d cross-defined, %d foreign\n",
		s.TotalTerms, s.DefinedTerms, s.CrossDefinitions, s.ForeignDefinitions)
	for _, pr := range s.PerPair {
		fmt.Printf("  %s vs %s: %d stable / %d unstable (%.2f%%)\n",
			pr.RefKey, pr.CandidateKey, pr.StableCount, pr.UnstableCount, pr.StablePct)
	}
	if len(s.TopUnstable) > 0 {
		fmt.Println("  most order-sensitive terms:")
		for _, u := range s.TopUnstable {
			fmt.Printf("    %s (%d pairs)\n", u.Term, u.Occurrences)
		}
	}
}
