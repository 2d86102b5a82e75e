package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/ingest"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/source"
)

// IngestFeedTask pulls a venue RSS/Atom feed and inserts its entries as
// submission rows, deduplicated by content hash.
type IngestFeedTask struct {
	Task
	FeedURL  string
	ingester *ingest.Ingester
	inserter source.Inserter
}

func NewIngestFeedTask(feedURL string, ingester *ingest.Ingester, inserter source.Inserter) *IngestFeedTask {
	return &IngestFeedTask{
		Task:     NewTask(TaskTypeIngestFeed, feedURL),
		FeedURL:  feedURL,
		ingester: ingester,
		inserter: inserter,
	}
}

func (t *IngestFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.inserter == nil {
		slog.Debug("No writable source configured, skipping feed ingest", "feed", t.FeedURL)
		return nil
	}

	submissions, err := t.ingester.Run(ctx, t.FeedURL)
	if err != nil {
		return fmt.Errorf("failed to ingest feed: %w", err)
	}

	inserted := 0
	duplicates := 0

	for _, submission := range submissions {
		ok, err := t.inserter.UpsertRecord(ctx, catalog.CollectionEvents, submission.ContentHash, submission.Record)
		if err != nil {
			return fmt.Errorf("failed to store submission: %w", err)
		}
		if ok {
			inserted++
		} else {
			duplicates++
		}
	}

	slog.Info("Task completed",
		"type", "IngestFeed",
		"feed", t.FeedURL,
		"duration", t.GetDuration(),
		"total", len(submissions),
		"new", inserted,
		"duplicates", duplicates)

	return nil
}
