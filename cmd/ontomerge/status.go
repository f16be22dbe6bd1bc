package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/ontomerge/internal/config"
	"github.com/dusk-indust/ontomerge/internal/order"
	"github.com/dusk-indust/ontomerge/internal/pipeline"
	"github.com/dusk-indust/ontomerge/internal/runcache"
)

// runStatus prints, for the current catalog, which planned orders already
// have cached results.
func runStatus(ctx context.Context, cfg *config.Config) error {
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipelineOptions(cfg, cat))
	if err != nil {
		return err
	}
	defer p.Close()

	orders, err := p.Plan()
	if err != nil {
		return err
	}

	cache := runcache.New(cfg.CacheDir)
	hash := cat.ContentHash()

	fmt.Printf("Catalog %s (%d ontologies)\n", hash, cat.Len())
	printOrderTable(orders, func(o order.MergeOrder) bool {
		return cache.HasMap(hash, o)
	})

	// Cached results can outnumber the planned orders, e.g. after an earlier
	// exhaustive run against the same catalog.
	cached, err := cache.Completed(hash)
	if err != nil {
		return err
	}
	if len(cached) > len(orders) {
		fmt.Printf("%d cached result(s) on disk for this catalog.\n", len(cached))
	}
	return nil
}

func printOrderTable(orders []order.MergeOrder, done func(order.MergeOrder) bool) {
	completed := 0
	for _, o := range orders {
		label := "pending"
		if done(o) {
			label = "complete"
			completed++
		}
		fmt.Printf("  %-50s [%s]\n", o.Key(), label)
	}
	fmt.Printf("%d/%d orders complete.\n", completed, len(orders))
}
