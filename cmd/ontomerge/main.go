// Command ontomerge runs the ontology merge order-sensitivity analysis:
// it merges a catalog of OWL ontologies under multiple orders, extracts
// which ontology each term's definition survived from, and reports the
// terms whose attribution depends on merge order.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dusk-indust/ontomerge/internal/config"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	Strategies  string
	Ontologies  string
	Out         string
	Status      bool
	ServeMCP    bool
	MCPAddr     string
	Verbose     bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("ontomerge", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "directory holding ontomerge.yml, data, and results")
	fs.StringVar(&flags.Strategies, "strategies", "", "comma-separated order strategies (alphabetical, hierarchy, size, exhaustive)")
	fs.StringVar(&flags.Ontologies, "ontologies", "", "comma-separated ontology ids, overriding the configured catalog")
	fs.StringVar(&flags.Out, "out", "", "write the summary JSON to this path (default: <artifact-dir>/summary.json)")
	fs.BoolVar(&flags.Status, "status", false, "print completed orders for the current catalog and exit")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server instead of a one-shot analysis")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "localhost:8137", "listen address for the MCP server")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ProjectRoot)
	if err != nil {
		return err
	}
	cfg.ApplyDefaults(flags.ProjectRoot)
	if flags.Strategies != "" {
		cfg.Strategies = splitList(flags.Strategies)
	}
	if flags.Ontologies != "" {
		cfg.Ontologies = splitList(flags.Ontologies)
	}
	if flags.Verbose {
		cfg.Verbose = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case flags.Status:
		return runStatus(ctx, cfg)
	case flags.ServeMCP:
		return runServeMCP(ctx, cfg, flags.MCPAddr)
	default:
		return runAnalyze(ctx, cfg, flags.Out)
	}
}

// splitList parses a comma-separated flag value into trimmed elements.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
