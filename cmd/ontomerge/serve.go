package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/ontomerge/internal/config"
	"github.com/dusk-indust/ontomerge/internal/mcptools"
)

// runServeMCP exposes the analysis over MCP until the context is cancelled.
func runServeMCP(ctx context.Context, cfg *config.Config, addr string) error {
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

	svc := mcptools.NewAnalysisService(opts)
	fmt.Printf("MCP server listening on %s\n", addr)
	return mcptools.RunMCPServer(ctx, svc, addr)
}
