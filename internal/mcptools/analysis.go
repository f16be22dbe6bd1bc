package mcptools

import (
	"github.com/dusk-indust/ontomerge/internal/order"
	"github.com/dusk-indust/ontomerge/internal/report"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// PlanOrdersInput is the input for the plan_orders MCP tool.
type PlanOrdersInput struct {
	Strategies []string `json:"strategies,omitempty" jsonschema:"order strategies to plan (default: configured set). Values: alphabetical, hierarchy, size, exhaustive"`
}

// PlannedOrder is one merge order in the plan_orders output.
type PlannedOrder struct {
	Key      string   `json:"key"`
	Strategy string   `json:"strategy"`
	Sequence []string `json:"sequence"`
}

// PlanOrdersOutput is the result of the plan_orders MCP tool.
type PlanOrdersOutput struct {
	Orders []PlannedOrder `json:"orders"`
	Total  int            `json:"total"`
}

// RunAnalysisInput is the input for the run_analysis MCP tool.
type RunAnalysisInput struct {
	Strategies []string `json:"strategies,omitempty" jsonschema:"order strategies to execute (default: configured set). Values: alphabetical, hierarchy, size, exhaustive"`
}

// RunAnalysisOutput is the result of the run_analysis MCP tool.
type RunAnalysisOutput struct {
	CatalogHash string         `json:"catalogHash"`
	Summary     report.Summary `json:"summary"`
}

// GetSummaryInput is the input for the get_summary MCP tool.
type GetSummaryInput struct{}

// GetSummaryOutput is the result of the get_summary MCP tool.
type GetSummaryOutput struct {
	CatalogHash string         `json:"catalogHash"`
	Summary     report.Summary `json:"summary"`
}

// QueryAttributionInput is the input for the query_attribution MCP tool.
type QueryAttributionInput struct {
	IRI string `json:"iri" jsonschema:"the full term IRI to look up, e.g. http://purl.obolibrary.org/obo/BFO_0000001"`
}

// QueryAttributionOutput is the result of the query_attribution MCP tool.
// Definers maps each order key to the definer label recorded under that
// order; conflicting attributions appear as a "+"-joined set.
type QueryAttributionOutput struct {
	IRI      string            `json:"iri"`
	Definers map[string]string `json:"definers"`
	Stable   bool              `json:"stable"`
}

// parseStrategies converts string strategy names, defaulting when empty.
func parseStrategies(names []string, fallback []order.Strategy) []order.Strategy {
	if len(names) == 0 {
		return fallback
	}
	out := make([]order.Strategy, 0, len(names))
	for _, n := range names {
		out = append(out, order.Strategy(n))
	}
	return out
}
