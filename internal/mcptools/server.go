package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewAnalysisMCPServer creates an MCP server with all 4 analysis tools registered.
func NewAnalysisMCPServer(svc *AnalysisService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ontomerge-analysis",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan_orders",
		Description: "Generate the merge orders for the configured catalog without executing anything. Curated strategies produce one order each; exhaustive enumerates every permutation up to the configured ceiling.",
	}, svc.PlanOrders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_analysis",
		Description: "Execute the full order-sensitivity analysis: merge the catalog under each planned order, extract term attribution from each artifact, compare the attribution maps, and return the aggregated summary.",
	}, svc.RunAnalysis)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_summary",
		Description: "Return the summary of the most recent analysis run without re-executing anything.",
	}, svc.GetSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_attribution",
		Description: "Look up which ontology defined a term under every analyzed merge order. Reports whether the attribution is stable across orders.",
	}, svc.QueryAttribution)

	return server
}

// RunMCPServer starts an HTTP server exposing the analysis MCP tools.
func RunMCPServer(ctx context.Context, svc *AnalysisService, addr string) error {
	server := NewAnalysisMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
