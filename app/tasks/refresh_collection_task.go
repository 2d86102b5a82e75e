package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/fetch"
)

// RefreshCollectionTask fetches one collection through the cache
// coordinator, normalizes the rows, and atomically swaps the result into
// the aggregation store. With Force unset the coordinator's TTL decides
// whether the network is touched at all.
type RefreshCollectionTask struct {
	Task
	Collection  catalog.Collection
	Force       bool
	ttl         time.Duration
	coordinator *fetch.Coordinator
	fetcher     *fetch.PagedFetcher
	normalizer  *catalog.Normalizer
	store       *catalog.Store
}

func NewRefreshCollectionTask(collection catalog.Collection, ttl time.Duration, force bool,
	coordinator *fetch.Coordinator, fetcher *fetch.PagedFetcher,
	normalizer *catalog.Normalizer, store *catalog.Store) *RefreshCollectionTask {
	return &RefreshCollectionTask{
		Task:        NewTask(TaskTypeRefreshCollection, string(collection)),
		Collection:  collection,
		Force:       force,
		ttl:         ttl,
		coordinator: coordinator,
		fetcher:     fetcher,
		normalizer:  normalizer,
		store:       store,
	}
}

func (t *RefreshCollectionTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rows, err := t.coordinator.GetOrFetch(ctx, string(t.Collection), t.ttl, func(ctx context.Context) ([]catalog.RawRecord, error) {
		return t.fetcher.FetchAll(ctx, t.Collection)
	}, t.Force)
	if err != nil {
		return fmt.Errorf("failed to fetch collection: %w", err)
	}

	dropped := 0

	switch t.Collection {
	case catalog.CollectionEvents:
		events := make([]catalog.NormalizedEvent, 0, len(rows))
		for _, row := range rows {
			event, ok := t.normalizer.Event(row)
			if !ok {
				dropped++
				continue
			}
			events = append(events, event)
		}
		t.store.ReplaceEvents(events)

	case catalog.CollectionDeals:
		deals := make([]catalog.NormalizedDeal, 0, len(rows))
		for _, row := range rows {
			deal, ok := t.normalizer.Deal(row)
			if !ok {
				dropped++
				continue
			}
			deals = append(deals, deal)
		}
		t.store.ReplaceDeals(deals)

	case catalog.CollectionBusinesses:
		businesses := make([]catalog.NormalizedBusiness, 0, len(rows))
		for _, row := range rows {
			business, ok := t.normalizer.Business(row)
			if !ok {
				dropped++
				continue
			}
			businesses = append(businesses, business)
		}
		t.store.ReplaceBusinesses(businesses)

	default:
		return fmt.Errorf("unknown collection: %s", t.Collection)
	}

	slog.Info("Task completed",
		"type", "RefreshCollection",
		"collection", string(t.Collection),
		"duration", t.GetDuration(),
		"rows", len(rows),
		"dropped", dropped,
		"forced", t.Force)

	return nil
}
