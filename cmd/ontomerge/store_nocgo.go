//go:build !cgo

package main

import (
	"github.com/dusk-indust/ontomerge/internal/config"
	"github.com/dusk-indust/ontomerge/internal/store"
)

// newAttributionStore falls back to the in-memory store when the KuzuDB
// driver is unavailable; attribution queries then only cover the current
// process.
func newAttributionStore(_ *config.Config) (store.Store, error) {
	return store.NewMemStore(), nil
}
