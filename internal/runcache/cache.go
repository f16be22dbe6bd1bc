// Package runcache persists merge artifacts and extracted attribution maps
// on disk, keyed by catalog content hash and order sequence, so re-running
// an analysis on unchanged inputs never re-invokes the external engine.
package runcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-indust/ontomerge/internal/attribution"
	"github.com/dusk-indust/ontomerge/internal/order"
)

// Cache is a directory-backed run cache. Layout:
//
//	<dir>/<catalogHash>/<orderHash>.owl              merged artifact
//	<dir>/<catalogHash>/<orderHash>.attribution.json extracted map
//
// A changed catalog changes the hash, which isolates stale entries without
// any eviction logic.
type Cache struct {
	dir string
}

// New creates a Cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// orderHash derives the filename stem for one order.
func orderHash(o order.MergeOrder) string {
	sum := sha256.Sum256([]byte(o.Key()))
	return hex.EncodeToString(sum[:12])
}

// ArtifactPath returns the cache location for the order's merge artifact.
func (c *Cache) ArtifactPath(catalogHash string, o order.MergeOrder) string {
	return filepath.Join(c.dir, catalogHash, orderHash(o)+".owl")
}

func (c *Cache) mapPath(catalogHash string, o order.MergeOrder) string {
	return filepath.Join(c.dir, catalogHash, orderHash(o)+".attribution.json")
}

// HasMap reports whether an attribution map is cached for the order.
func (c *Cache) HasMap(catalogHash string, o order.MergeOrder) bool {
	_, err := os.Stat(c.mapPath(catalogHash, o))
	return err == nil
}

// HasArtifact reports whether a non-empty merged artifact is cached.
func (c *Cache) HasArtifact(catalogHash string, o order.MergeOrder) bool {
	info, err := os.Stat(c.ArtifactPath(catalogHash, o))
	return err == nil && info.Size() > 0
}

// LoadMap returns the cached attribution map for the order, or (nil, nil) on
// a cache miss.
func (c *Cache) LoadMap(catalogHash string, o order.MergeOrder) (*attribution.Map, error) {
	data, err := os.ReadFile(c.mapPath(catalogHash, o))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runcache: read map: %w", err)
	}
	var m attribution.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("runcache: decode map for %s: %w", o.Key(), err)
	}
	return &m, nil
}

// StoreMap caches the attribution map for the order. The write goes through
// a temp file and rename so a crashed run never leaves a torn entry behind.
func (c *Cache) StoreMap(catalogHash string, o order.MergeOrder, m *attribution.Map) error {
	path := c.mapPath(catalogHash, o)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("runcache: mkdir: %w", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("runcache: encode map for %s: %w", o.Key(), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("runcache: write map: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("runcache: commit map: %w", err)
	}
	return nil
}

// AdoptArtifact moves a freshly merged artifact into the cache and returns
// its cached path. Falls back to a copy when rename crosses filesystems.
func (c *Cache) AdoptArtifact(catalogHash string, o order.MergeOrder, artifactPath string) (string, error) {
	dst := c.ArtifactPath(catalogHash, o)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("runcache: mkdir: %w", err)
	}
	if err := os.Rename(artifactPath, dst); err != nil {
		if err := copyFile(artifactPath, dst); err != nil {
			return "", fmt.Errorf("runcache: adopt artifact: %w", err)
		}
		_ = os.Remove(artifactPath)
	}
	return dst, nil
}

// Completed lists the order hashes with a cached attribution map for the
// catalog. Used by the status surface; the hashes are opaque.
func (c *Cache) Completed(catalogHash string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.dir, catalogHash))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runcache: scan: %w", err)
	}
	var done []string
	for _, e := range entries {
		name := e.Name()
		const suffix = ".attribution.json"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			done = append(done, name[:len(name)-len(suffix)])
		}
	}
	return done, nil
}

// copyFile streams src into dst via a temp file so a partial copy is never
// visible under the final name. Artifacts can be far larger than memory, so
// the whole file is never buffered.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
