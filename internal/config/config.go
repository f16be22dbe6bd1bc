// Package config loads project-level settings for an analysis run from
// ontomerge.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings loaded from ontomerge.yml. Zero values are replaced
// by defaults in ApplyDefaults.
type Config struct {
	// DataDir holds the downloaded ontology artifacts.
	DataDir string `yaml:"dataDir,omitempty"`

	// ArtifactDir receives merged artifacts; CacheDir the run cache.
	ArtifactDir string `yaml:"artifactDir,omitempty"`
	CacheDir    string `yaml:"cacheDir,omitempty"`

	// Ontologies lists the catalog ids, in download order.
	Ontologies []string `yaml:"ontologies,omitempty"`

	// Strategies selects the orders to evaluate. "exhaustive" replaces the
	// curated strategies with all permutations.
	Strategies []string `yaml:"strategies,omitempty"`

	// MemoryBudgetMB is the shared admission budget.
	MemoryBudgetMB int64 `yaml:"memoryBudgetMB,omitempty"`

	// CostMultiplier scales summed input bytes into estimated working memory.
	CostMultiplier float64 `yaml:"costMultiplier,omitempty"`

	Workers           int     `yaml:"workers,omitempty"`
	MaxRetries        int     `yaml:"maxRetries,omitempty"`
	TimeoutMinutes    int     `yaml:"timeoutMinutes,omitempty"`
	SkipRateThreshold float64 `yaml:"skipRateThreshold,omitempty"`
	ExhaustiveCeiling int     `yaml:"exhaustiveCeiling,omitempty"`

	// HierarchyRanks overrides DefaultHierarchyRanks per ontology id.
	HierarchyRanks map[string]int `yaml:"hierarchyRanks,omitempty"`

	// RobotBinary is the merge engine executable.
	RobotBinary string `yaml:"robotBinary,omitempty"`

	// TrimAxioms enables the engine's disjoint-axiom removal pass.
	TrimAxioms bool `yaml:"trimAxioms,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultMemoryBudgetMB    = 16_384
	DefaultCostMultiplier    = 4.0
	DefaultWorkers           = 2
	DefaultMaxRetries        = 2
	DefaultTimeoutMinutes    = 120
	DefaultSkipRateThreshold = 0.01
	DefaultExhaustiveCeiling = 8
)

// DefaultHierarchyRanks places well-known OBO ontologies into merge tiers:
// foundational upper-level ontologies first, domain ontologies next, large
// reference ontologies after, vocabularies last. Unlisted ids default to the
// domain tier.
var DefaultHierarchyRanks = map[string]int{
	// foundational
	"bfo": 0, "ro": 0, "iao": 0, "omo": 0, "pato": 0,
	// domain
	"go": 1, "envo": 1, "obi": 1, "uberon": 1, "cl": 1, "po": 1, "so": 1,
	// large reference
	"chebi": 2, "ncbitaxon": 2, "pr": 2,
	// vocabularies
	"foodon": 3, "uo": 3,
}

// Load reads ontomerge.yml or ontomerge.yaml from dir. A missing file yields
// a default config, not an error.
func Load(dir string) (*Config, error) {
	var cfg Config
	for _, name := range []string{"ontomerge.yml", "ontomerge.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		break
	}
	cfg.ApplyDefaults(dir)
	return &cfg, nil
}

// ApplyDefaults fills unset fields. dir anchors the relative default paths.
func (c *Config) ApplyDefaults(dir string) {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(dir, "data")
	}
	if c.ArtifactDir == "" {
		c.ArtifactDir = filepath.Join(dir, "results")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(dir, "cache")
	}
	if len(c.Strategies) == 0 {
		c.Strategies = []string{"alphabetical", "hierarchy", "size"}
	}
	if c.MemoryBudgetMB <= 0 {
		c.MemoryBudgetMB = DefaultMemoryBudgetMB
	}
	if c.CostMultiplier <= 0 {
		c.CostMultiplier = DefaultCostMultiplier
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	// Zero is indistinguishable from unset in YAML; -1 disables retries.
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	} else if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.TimeoutMinutes <= 0 {
		c.TimeoutMinutes = DefaultTimeoutMinutes
	}
	if c.SkipRateThreshold <= 0 {
		c.SkipRateThreshold = DefaultSkipRateThreshold
	}
	if c.ExhaustiveCeiling <= 0 {
		c.ExhaustiveCeiling = DefaultExhaustiveCeiling
	}
	if c.HierarchyRanks == nil {
		c.HierarchyRanks = DefaultHierarchyRanks
	}
	if c.RobotBinary == "" {
		c.RobotBinary = "robot"
	}
}

// MemoryBudgetBytes returns the admission budget in bytes.
func (c *Config) MemoryBudgetBytes() int64 {
	return c.MemoryBudgetMB * 1024 * 1024
}

// Timeout returns the per-attempt engine timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}
