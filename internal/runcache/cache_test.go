package runcache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ontomerge/internal/attribution"
	"github.com/dusk-indust/ontomerge/internal/order"
)

func testOrder() order.MergeOrder {
	return order.MergeOrder{
		Strategy: order.StrategyAlphabetical,
		Sequence: []string{"bfo", "iao", "ro"},
	}
}

func TestMapRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	o := testOrder()

	m, err := c.LoadMap("cat1", o)
	require.NoError(t, err)
	assert.Nil(t, m, "miss should return nil without error")

	stored := &attribution.Map{
		OrderKey: o.Key(),
		Terms: map[string]attribution.TermAttribution{
			"http://purl.obolibrary.org/obo/BFO_0000001": {DefiningOntology: "bfo"},
		},
		Statements: 10,
	}
	require.NoError(t, c.StoreMap("cat1", o, stored))

	got, err := c.LoadMap("cat1", o)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stored.OrderKey, got.OrderKey)
	assert.Equal(t, stored.Terms, got.Terms)
	assert.Equal(t, 10, got.Statements)
}

func TestCatalogHashIsolation(t *testing.T) {
	c := New(t.TempDir())
	o := testOrder()

	require.NoError(t, c.StoreMap("cat1", o, &attribution.Map{OrderKey: o.Key()}))

	got, err := c.LoadMap("cat2", o)
	require.NoError(t, err)
	assert.Nil(t, got, "different catalog hash must not share entries")
}

func TestAdoptAndHasArtifact(t *testing.T) {
	dir := t.TempDir()
	c := New(filepath.Join(dir, "cache"))
	o := testOrder()

	assert.False(t, c.HasArtifact("cat1", o))

	src := filepath.Join(dir, "merged.owl")
	require.NoError(t, os.WriteFile(src, []byte("<owl/>"), 0o644))

	cached, err := c.AdoptArtifact("cat1", o, src)
	require.NoError(t, err)
	assert.True(t, c.HasArtifact("cat1", o))
	assert.Equal(t, c.ArtifactPath("cat1", o), cached)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be moved into the cache")
}

func TestEmptyArtifactNotCached(t *testing.T) {
	c := New(t.TempDir())
	o := testOrder()

	path := c.ArtifactPath("cat1", o)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	assert.False(t, c.HasArtifact("cat1", o), "zero-byte artifact is a miss")
}

func TestCompleted(t *testing.T) {
	c := New(t.TempDir())

	done, err := c.Completed("cat1")
	require.NoError(t, err)
	assert.Empty(t, done)

	a := order.MergeOrder{Strategy: order.StrategyAlphabetical, Sequence: []string{"a", "b"}}
	b := order.MergeOrder{Strategy: order.StrategySize, Sequence: []string{"b", "a"}}
	require.NoError(t, c.StoreMap("cat1", a, &attribution.Map{OrderKey: a.Key()}))
	require.NoError(t, c.StoreMap("cat1", b, &attribution.Map{OrderKey: b.Key()}))

	done, err = c.Completed("cat1")
	require.NoError(t, err)
	assert.Len(t, done, 2)
}

func TestCopyFallbackStreamsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.owl")
	dst := filepath.Join(dir, "sub", "dst.owl")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))

	// Larger than any internal copy buffer, so the content crosses several
	// chunks.
	payload := bytes.Repeat([]byte("<rdf:RDF>ontology</rdf:RDF>\n"), 64*1024)
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	require.NoError(t, copyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NoFileExists(t, dst+".tmp", "temp file must not survive the copy")
}

func TestCopyFallbackMissingSourceLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.owl")

	require.Error(t, copyFile(filepath.Join(dir, "absent.owl"), dst))
	assert.NoFileExists(t, dst)
	assert.NoFileExists(t, dst+".tmp")
}
