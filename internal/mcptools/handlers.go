package mcptools

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/ontomerge/internal/pipeline"
	"github.com/dusk-indust/ontomerge/internal/store"
)

// AnalysisService holds the pipeline configuration and attribution store used
// by the MCP tool handlers. Runs are serialized: the merge engine budget is
// shared state, so concurrent tool calls queue on the mutex.
type AnalysisService struct {
	opts  pipeline.Options
	store store.Store

	mu   sync.Mutex
	last *pipeline.Result
}

// NewAnalysisService creates an AnalysisService around the given pipeline
// options. opts.Store also serves query_attribution when non-nil.
func NewAnalysisService(opts pipeline.Options) *AnalysisService {
	return &AnalysisService{opts: opts, store: opts.Store}
}

// PlanOrders generates merge orders without executing anything.
func (s *AnalysisService) PlanOrders(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input PlanOrdersInput,
) (*mcp.CallToolResult, PlanOrdersOutput, error) {
	opts := s.opts
	opts.Strategies = parseStrategies(input.Strategies, s.opts.Strategies)

	p, err := pipeline.New(opts)
	if err != nil {
		return nil, PlanOrdersOutput{}, err
	}
	defer p.Close()

	orders, err := p.Plan()
	if err != nil {
		return nil, PlanOrdersOutput{}, err
	}

	out := PlanOrdersOutput{Total: len(orders)}
	for _, o := range orders {
		out.Orders = append(out.Orders, PlannedOrder{
			Key:      o.Key(),
			Strategy: string(o.Strategy),
			Sequence: o.Sequence,
		})
	}
	return nil, out, nil
}

// RunAnalysis executes the full analysis and returns the summary.
func (s *AnalysisService) RunAnalysis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunAnalysisInput,
) (*mcp.CallToolResult, RunAnalysisOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.opts
	opts.Strategies = parseStrategies(input.Strategies, s.opts.Strategies)

	p, err := pipeline.New(opts)
	if err != nil {
		return nil, RunAnalysisOutput{}, err
	}
	defer p.Close()

	res, err := p.Run(ctx)
	if err != nil {
		return nil, RunAnalysisOutput{}, fmt.Errorf("run analysis: %w", err)
	}
	s.last = res

	return nil, RunAnalysisOutput{
		CatalogHash: res.CatalogHash,
		Summary:     *res.Summary,
	}, nil
}

// GetSummary returns the summary of the most recent run.
func (s *AnalysisService) GetSummary(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetSummaryInput,
) (*mcp.CallToolResult, GetSummaryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return nil, GetSummaryOutput{}, fmt.Errorf("no analysis has been run yet; call run_analysis first")
	}
	return nil, GetSummaryOutput{
		CatalogHash: s.last.CatalogHash,
		Summary:     *s.last.Summary,
	}, nil
}

// QueryAttribution looks up one term's definer under every stored order.
func (s *AnalysisService) QueryAttribution(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryAttributionInput,
) (*mcp.CallToolResult, QueryAttributionOutput, error) {
	if input.IRI == "" {
		return nil, QueryAttributionOutput{}, fmt.Errorf("iri is required")
	}
	if s.store == nil {
		return nil, QueryAttributionOutput{}, fmt.Errorf("no attribution store configured")
	}

	definers, err := s.store.TermDefiners(ctx, input.IRI)
	if err != nil {
		return nil, QueryAttributionOutput{}, fmt.Errorf("query attribution: %w", err)
	}

	stable := true
	seen := false
	var first string
	for _, d := range definers {
		if !seen {
			first, seen = d, true
			continue
		}
		if d != first {
			stable = false
		}
	}

	return nil, QueryAttributionOutput{
		IRI:      input.IRI,
		Definers: definers,
		Stable:   stable,
	}, nil
}
