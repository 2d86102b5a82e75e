package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

// ReclassifyTask reloads the taxonomy tables and reapplies them to the
// resident collections without touching the network.
type ReclassifyTask struct {
	Task
	taxonomy *catalog.Taxonomy
	store    *catalog.Store
}

func NewReclassifyTask(taxonomy *catalog.Taxonomy, store *catalog.Store) *ReclassifyTask {
	return &ReclassifyTask{
		Task:     NewTask(TaskTypeReclassify, "taxonomy"),
		taxonomy: taxonomy,
		store:    store,
	}
}

func (t *ReclassifyTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.taxonomy.Reload(); err != nil {
		return fmt.Errorf("failed to reload taxonomy: %w", err)
	}

	t.store.Reclassify(t.taxonomy)

	slog.Info("Task completed",
		"type", "Reclassify",
		"duration", t.GetDuration(),
		"categories", len(t.taxonomy.Categories()))

	return nil
}
