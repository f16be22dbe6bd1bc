// Package catalog holds the in-memory registry of ontologies under test.
// Entries are resolved once, up front, and never change during a run.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Ontology is one unit under test: a named ontology with a resolved local
// artifact. IsBase marks pseudo-base variants (imports stripped) as opposed
// to full ontologies.
type Ontology struct {
	ID        string `json:"id"`
	SourceURI string `json:"sourceUri"`
	LocalPath string `json:"localPath"`
	ByteSize  int64  `json:"byteSize"`
	IsBase    bool   `json:"isBase"`
}

// Provider resolves an ontology id to a local artifact. Implementations own
// downloading and content-addressed caching; the returned path must remain
// stable for the duration of a run.
type Provider interface {
	Resolve(ctx context.Context, id string) (Ontology, error)
}

// Catalog is an immutable registry of ontologies. Construct with New or
// FromProvider; entries cannot be added or mutated afterwards.
type Catalog struct {
	entries []Ontology
	byID    map[string]int
}

// New builds a Catalog from the given entries. Entry order is preserved.
// Duplicate or empty ids are rejected.
func New(entries []Ontology) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog: no ontologies given")
	}
	c := &Catalog{
		entries: make([]Ontology, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, e := range c.entries {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog: entry %d has empty id", i)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate ontology id %q", e.ID)
		}
		c.byID[e.ID] = i
	}
	return c, nil
}

// FromProvider resolves each id through the provider and catalogs the results.
func FromProvider(ctx context.Context, p Provider, ids []string) (*Catalog, error) {
	entries := make([]Ontology, 0, len(ids))
	for _, id := range ids {
		o, err := p.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("catalog: resolve %q: %w", id, err)
		}
		entries = append(entries, o)
	}
	return New(entries)
}

// Len returns the number of cataloged ontologies.
func (c *Catalog) Len() int { return len(c.entries) }

// IDs returns the ontology ids in catalog order. The slice is a copy.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// Get returns the ontology with the given id.
func (c *Catalog) Get(id string) (Ontology, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Ontology{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of all cataloged ontologies in catalog order.
func (c *Catalog) Entries() []Ontology {
	out := make([]Ontology, len(c.entries))
	copy(out, c.entries)
	return out
}

// TotalBytes sums the byte sizes of all cataloged ontologies.
func (c *Catalog) TotalBytes() int64 {
	var n int64
	for _, e := range c.entries {
		n += e.ByteSize
	}
	return n
}

// ContentHash returns a hex digest identifying the cataloged set by id,
// source and size, independent of catalog order. Cached runs are keyed by
// this hash, so any change to the input set invalidates prior artifacts.
func (c *Catalog) ContentHash() string {
	lines := make([]string, len(c.entries))
	for i, e := range c.entries {
		lines[i] = e.ID + "\x00" + e.SourceURI + "\x00" + strconv.FormatInt(e.ByteSize, 10) + "\x00" + strconv.FormatBool(e.IsBase)
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:16])
}
