// Package pipeline coordinates a full order-sensitivity analysis: it plans
// merge orders, executes them under an admission-controlled worker pool,
// extracts attribution from each artifact, compares the maps, and aggregates
// a summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/ontomerge/internal/attribution"
	"github.com/dusk-indust/ontomerge/internal/catalog"
	"github.com/dusk-indust/ontomerge/internal/divergence"
	"github.com/dusk-indust/ontomerge/internal/merge"
	"github.com/dusk-indust/ontomerge/internal/order"
	"github.com/dusk-indust/ontomerge/internal/report"
	"github.com/dusk-indust/ontomerge/internal/runcache"
	"github.com/dusk-indust/ontomerge/internal/store"
)

// Options configures a Pipeline. Catalog, Engine, and MemoryBudget are
// required; everything else has a working zero value.
type Options struct {
	Catalog *catalog.Catalog
	Engine  merge.Engine

	// Strategies selects which merge orders to plan. Empty means the curated
	// set (alphabetical, hierarchy, size).
	Strategies []order.Strategy

	// Workers bounds concurrent merge jobs. Values below 1 mean 1.
	Workers int

	// MemoryBudget is the total admission budget in bytes.
	MemoryBudget int64

	// CostMultiplier scales summed input bytes into an admission cost.
	// Zero means the default.
	CostMultiplier float64

	Executor merge.ExecutorConfig

	// SkipThreshold overrides the extractor's malformed-statement tolerance
	// when positive.
	SkipThreshold float64

	HierarchyRanks    map[string]int
	ExhaustiveCeiling int

	// ArtifactDir is where freshly merged artifacts are written.
	ArtifactDir string

	// Cache, when non-nil, short-circuits orders whose artifact and
	// attribution map were already produced for this catalog.
	Cache *runcache.Cache

	// Store, when non-nil, receives every extracted attribution map.
	Store store.Store
}

// Pipeline runs the analysis described by its Options.
type Pipeline struct {
	opts        Options
	catalogHash string
	admission   *merge.Admission
	executor    *merge.Executor
	extractor   *attribution.Extractor
	progress    *ProgressReporter
}

// Result is the output of one full analysis run.
type Result struct {
	CatalogHash string
	Summary     *report.Summary
	Runs        []merge.Run
	Outcomes    []report.OrderOutcome
}

// New validates the options and wires the pipeline components.
func New(opts Options) (*Pipeline, error) {
	if opts.Catalog == nil || opts.Catalog.Len() == 0 {
		return nil, fmt.Errorf("pipeline: empty catalog")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("pipeline: no merge engine")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = order.CuratedStrategies
	}
	admission, err := merge.NewAdmission(opts.MemoryBudget)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{
		opts:        opts,
		catalogHash: opts.Catalog.ContentHash(),
		admission:   admission,
		executor:    merge.NewExecutor(opts.Engine, admission, opts.Catalog, opts.ArtifactDir, opts.Executor),
		extractor:   &attribution.Extractor{Threshold: opts.SkipThreshold},
		progress:    NewProgressReporter(),
	}, nil
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when the
// pipeline is no longer needed.
func (p *Pipeline) Close() {
	p.progress.Close()
}

// Plan generates the merge orders for the configured strategies without
// executing anything.
func (p *Pipeline) Plan() ([]order.MergeOrder, error) {
	var genOpts []order.Option
	if len(p.opts.HierarchyRanks) > 0 {
		genOpts = append(genOpts, order.WithHierarchyRanks(p.opts.HierarchyRanks))
	}
	if p.opts.ExhaustiveCeiling > 0 {
		genOpts = append(genOpts, order.WithExhaustiveCeiling(p.opts.ExhaustiveCeiling))
	}
	g := order.NewGenerator(p.opts.Catalog, genOpts...)

	var curated []order.Strategy
	exhaustive := false
	for _, s := range p.opts.Strategies {
		if s == order.StrategyExhaustive {
			exhaustive = true
			continue
		}
		curated = append(curated, s)
	}

	orders, err := g.Curated(curated)
	if err != nil {
		return nil, fmt.Errorf("pipeline: plan: %w", err)
	}
	if exhaustive {
		perms, err := g.Exhaustive()
		if err != nil {
			return nil, fmt.Errorf("pipeline: plan: %w", err)
		}
		orders = append(orders, perms...)
	}
	return orders, nil
}

// Run executes the full analysis. Individual order failures are recorded as
// outcomes in the result rather than aborting the run; the returned error is
// non-nil only for planning errors, context cancellation, or a failing
// attribution store.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.progress.Emit(ProgressEvent{Phase: PhasePlanning, Status: ProgressWorking})
	orders, err := p.Plan()
	if err != nil {
		return nil, err
	}
	p.progress.Emit(ProgressEvent{Phase: PhasePlanning, Status: ProgressComplete,
		Message: fmt.Sprintf("%d orders planned", len(orders))})

	type orderResult struct {
		outcome report.OrderOutcome
		run     *merge.Run
		m       *attribution.Map
	}
	results := make([]orderResult, len(orders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, o := range orders {
		p.progress.Emit(ProgressEvent{Phase: PhaseMerging, OrderKey: o.Key(), Status: ProgressPending})
		g.Go(func() error {
			outcome, run, m := p.runOne(gctx, o)
			results[i] = orderResult{outcome: outcome, run: run, m: m}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maps := make(map[string]*attribution.Map)
	res := &Result{CatalogHash: p.catalogHash}
	for _, r := range results {
		res.Outcomes = append(res.Outcomes, r.outcome)
		if r.run != nil {
			res.Runs = append(res.Runs, *r.run)
		}
		if r.m != nil {
			maps[r.m.OrderKey] = r.m
			if p.opts.Store != nil {
				if err := p.opts.Store.PutMap(ctx, r.outcome.Strategy, r.m); err != nil {
					return nil, fmt.Errorf("pipeline: store attribution: %w", err)
				}
			}
		}
	}

	reports := p.compare(orders, maps)

	p.progress.Emit(ProgressEvent{Phase: PhaseAggregating, Status: ProgressWorking})
	res.Summary = report.Aggregate(maps, reports, res.Outcomes)
	p.progress.Emit(ProgressEvent{Phase: PhaseAggregating, Status: ProgressComplete})
	return res, nil
}

// runOne drives a single order to an outcome: cache hit, successful merge
// plus extraction, or a classified failure.
func (p *Pipeline) runOne(ctx context.Context, o order.MergeOrder) (report.OrderOutcome, *merge.Run, *attribution.Map) {
	key := o.Key()
	outcome := report.OrderOutcome{OrderKey: key, Strategy: string(o.Strategy)}

	if p.opts.Cache != nil && p.opts.Cache.HasArtifact(p.catalogHash, o) {
		m, err := p.opts.Cache.LoadMap(p.catalogHash, o)
		if err == nil && m != nil {
			p.progress.Emit(ProgressEvent{Phase: PhaseMerging, OrderKey: key, Status: ProgressCached})
			outcome.Status = report.OutcomeCached
			run := &merge.Run{Order: o, ArtifactPath: p.opts.Cache.ArtifactPath(p.catalogHash, o), FromCache: true}
			return outcome, run, m
		}
		// A torn cache entry falls through to a fresh merge.
	}

	p.progress.Emit(ProgressEvent{Phase: PhaseMerging, OrderKey: key, Status: ProgressWorking})
	job, err := merge.NewJob(o, p.opts.Catalog, p.opts.CostMultiplier)
	if err != nil {
		outcome.Status = report.OutcomeFailed
		outcome.Cause = err.Error()
		p.progress.Emit(ProgressEvent{Phase: PhaseMerging, OrderKey: key, Status: ProgressFailed, Message: err.Error()})
		return outcome, nil, nil
	}

	run, err := p.executor.Run(ctx, job)
	if err != nil {
		outcome.Status, outcome.Cause = classifyOutcome(err)
		p.progress.Emit(ProgressEvent{Phase: PhaseMerging, OrderKey: key, Status: ProgressFailed, Message: err.Error()})
		return outcome, nil, nil
	}
	p.progress.Emit(ProgressEvent{Phase: PhaseMerging, OrderKey: key, Status: ProgressComplete})

	p.progress.Emit(ProgressEvent{Phase: PhaseExtracting, OrderKey: key, Status: ProgressWorking})
	m, err := p.extractor.Extract(run.ArtifactPath, key)
	if err != nil {
		outcome.Status = report.OutcomeFailed
		outcome.Cause = causeLabel(err)
		p.progress.Emit(ProgressEvent{Phase: PhaseExtracting, OrderKey: key, Status: ProgressFailed, Message: err.Error()})
		return outcome, run, nil
	}
	p.progress.Emit(ProgressEvent{Phase: PhaseExtracting, OrderKey: key, Status: ProgressComplete})

	if p.opts.Cache != nil {
		cached, err := p.opts.Cache.AdoptArtifact(p.catalogHash, o, run.ArtifactPath)
		if err != nil {
			log.Printf("warning: could not cache artifact for %s: %v", key, err)
		} else {
			run.ArtifactPath = cached
			// Cache the map only after the artifact is in place, so a
			// cached map always implies a cached artifact.
			if err := p.opts.Cache.StoreMap(p.catalogHash, o, m); err != nil {
				log.Printf("warning: could not cache attribution map for %s: %v", key, err)
			}
		}
	}

	outcome.Status = report.OutcomeSucceeded
	return outcome, run, m
}

// compare builds divergence reports per the comparison policy: curated
// orders are compared pairwise, exhaustive permutations each against the
// reference (the map with the smallest order key among them).
func (p *Pipeline) compare(orders []order.MergeOrder, maps map[string]*attribution.Map) []*divergence.Report {
	var curated, exhaustive []string
	for _, o := range orders {
		key := o.Key()
		if maps[key] == nil {
			continue
		}
		if o.Strategy == order.StrategyExhaustive {
			exhaustive = append(exhaustive, key)
		} else {
			curated = append(curated, key)
		}
	}
	sort.Strings(curated)
	sort.Strings(exhaustive)

	var reports []*divergence.Report
	for i := 0; i < len(curated); i++ {
		for j := i + 1; j < len(curated); j++ {
			p.progress.Emit(ProgressEvent{Phase: PhaseComparing, OrderKey: curated[j], Status: ProgressWorking})
			reports = append(reports, divergence.Compare(maps[curated[i]], maps[curated[j]]))
		}
	}
	if len(exhaustive) > 1 {
		ref := exhaustive[0]
		for _, key := range exhaustive[1:] {
			p.progress.Emit(ProgressEvent{Phase: PhaseComparing, OrderKey: key, Status: ProgressWorking})
			reports = append(reports, divergence.Compare(maps[ref], maps[key]))
		}
	}
	return reports
}

// classifyOutcome maps an executor error onto an outcome status and cause.
func classifyOutcome(err error) (status, cause string) {
	var unsched *merge.UnschedulableError
	if errors.As(err, &unsched) {
		return report.OutcomeUnschedulable, unsched.Error()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return report.OutcomeAborted, err.Error()
	}
	return report.OutcomeFailed, causeLabel(err)
}

// causeLabel extracts a short cause from the error taxonomy.
func causeLabel(err error) string {
	var transient *merge.TransientError
	if errors.As(err, &transient) {
		return string(transient.Cause)
	}
	var corrupt *attribution.CorruptionError
	if errors.As(err, &corrupt) {
		return "corruption"
	}
	return err.Error()
}
