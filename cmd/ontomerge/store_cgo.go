//go:build cgo

package main

import (
	"path/filepath"

	"github.com/dusk-indust/ontomerge/internal/config"
	"github.com/dusk-indust/ontomerge/internal/store"
)

// newAttributionStore opens the persistent KuzuDB-backed attribution store
// under the cache directory.
func newAttributionStore(cfg *config.Config) (store.Store, error) {
	return store.NewKuzuFileStore(filepath.Join(cfg.CacheDir, "attribution.db"))
}
