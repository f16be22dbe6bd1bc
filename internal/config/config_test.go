package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, []string{"alphabetical", "hierarchy", "size"}, cfg.Strategies)
	assert.Equal(t, int64(DefaultMemoryBudgetMB), cfg.MemoryBudgetMB)
	assert.Equal(t, DefaultCostMultiplier, cfg.CostMultiplier)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultSkipRateThreshold, cfg.SkipRateThreshold)
	assert.Equal(t, "robot", cfg.RobotBinary)
	assert.Equal(t, 0, cfg.HierarchyRanks["bfo"])
	assert.Equal(t, 2, cfg.HierarchyRanks["chebi"])
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := `
ontologies: [bfo, ro, pato, chebi]
strategies: [exhaustive]
memoryBudgetMB: 262144
workers: 4
maxRetries: 1
timeoutMinutes: 240
robotBinary: /opt/robot/bin/robot
trimAxioms: true
hierarchyRanks:
  bfo: 0
  custom-onto: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ontomerge.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"bfo", "ro", "pato", "chebi"}, cfg.Ontologies)
	assert.Equal(t, []string{"exhaustive"}, cfg.Strategies)
	assert.Equal(t, int64(262144)*1024*1024, cfg.MemoryBudgetBytes())
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 4*time.Hour, cfg.Timeout())
	assert.Equal(t, "/opt/robot/bin/robot", cfg.RobotBinary)
	assert.True(t, cfg.TrimAxioms)
	assert.Equal(t, 1, cfg.HierarchyRanks["custom-onto"])
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ontomerge.yml"), []byte("workers: [not an int"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestRetryDefaultsAndDisable(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults(t.TempDir())
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)

	cfg = &Config{MaxRetries: -1}
	cfg.ApplyDefaults(t.TempDir())
	assert.Equal(t, 0, cfg.MaxRetries)
}
