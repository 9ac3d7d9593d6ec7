// Package migrate copies the legacy catalog file into the relational store.
package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amavi/catalogo/internal/model"
	"github.com/amavi/catalogo/internal/store"
)

// Importer inserts an item unless one with the same name already exists.
type Importer interface {
	CreateIfAbsent(ctx context.Context, item model.Item) (*model.Item, bool, error)
}

// Result counts what a run did with each source record.
type Result struct {
	Total   int
	Created int
	Skipped int
	Failed  int
}

// Run copies every item of source into target, matching by name. Items
// already present are skipped, so running it again changes nothing. A
// failing item is logged and counted without stopping the run. Source IDs
// are not preserved.
func Run(ctx context.Context, source store.Store, target Importer) (Result, error) {
	var res Result

	items, err := source.List(ctx, model.Filter{})
	if err != nil {
		return res, fmt.Errorf("reading source items: %w", err)
	}

	res.Total = len(items)
	if res.Total == 0 {
		slog.Info("no items to migrate")
		return res, nil
	}
	slog.Info("migrating items", "count", res.Total)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		legacyID := item.ID
		item.ID = 0
		if item.Availability == "" {
			item.Availability = model.AvailabilityAvailable
		}
		item.Size = model.NormalizeSize(item.Type, item.Size)

		stored, created, err := target.CreateIfAbsent(ctx, item)
		switch {
		case err != nil:
			res.Failed++
			slog.Error("failed to migrate item", "legacy_id", legacyID, "name", item.Name, "error", err)
		case created:
			res.Created++
			slog.Info("item migrated", "legacy_id", legacyID, "id", stored.ID, "name", item.Name)
		default:
			res.Skipped++
			slog.Info("item already exists, skipping", "legacy_id", legacyID, "id", stored.ID, "name", item.Name)
		}
	}

	slog.Info("migration finished",
		"total", res.Total, "created", res.Created, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
