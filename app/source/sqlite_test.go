package source

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

func testSQLiteSource(t *testing.T) *SQLiteSource {
	t.Helper()

	src, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { src.Close() })

	if _, _, err := src.RunMigrations(); err != nil {
		t.Fatal(err)
	}

	return src
}

func TestRunMigrations(t *testing.T) {
	src, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	version, dirty, err := src.RunMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if version == 0 {
		t.Error("Expected a nonzero migration version")
	}
	if dirty {
		t.Error("Expected a clean migration state")
	}

	// Running again is a no-op.
	again, _, err := src.RunMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if again != version {
		t.Errorf("Expected version %d after rerun, got %d", version, again)
	}
}

func TestUpsertRecordAndFetchPage(t *testing.T) {
	src := testSQLiteSource(t)
	ctx := context.Background()

	record := catalog.RawRecord{"id": "evt-1", "title": "Open Mic Night"}
	inserted, err := src.UpsertRecord(ctx, catalog.CollectionEvents, "hash-1", record)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Error("Expected first upsert to insert")
	}

	rows, err := src.FetchPage(ctx, catalog.CollectionEvents, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Str("title") != "Open Mic Night" {
		t.Errorf("Expected stored title, got %q", rows[0].Str("title"))
	}
}

func TestUpsertRecordDeduplicates(t *testing.T) {
	src := testSQLiteSource(t)
	ctx := context.Background()

	record := catalog.RawRecord{"id": "evt-1", "title": "Open Mic Night"}
	if _, err := src.UpsertRecord(ctx, catalog.CollectionEvents, "hash-1", record); err != nil {
		t.Fatal(err)
	}

	inserted, err := src.UpsertRecord(ctx, catalog.CollectionEvents, "hash-1", record)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("Expected matching content hash to be rejected as a duplicate")
	}

	rows, err := src.FetchPage(ctx, catalog.CollectionEvents, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("Expected 1 stored row, got %d", len(rows))
	}
}

func TestUpsertRecordGeneratesMissingID(t *testing.T) {
	src := testSQLiteSource(t)
	ctx := context.Background()

	record := catalog.RawRecord{"title": "Untracked Event"}
	if _, err := src.UpsertRecord(ctx, catalog.CollectionEvents, "hash-2", record); err != nil {
		t.Fatal(err)
	}

	rows, err := src.FetchPage(ctx, catalog.CollectionEvents, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Str("id") == "" {
		t.Error("Expected a generated id on the stored record")
	}
}

func TestFetchPagePagination(t *testing.T) {
	src := testSQLiteSource(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := catalog.RawRecord{
			"id":    fmt.Sprintf("evt-%d", i),
			"title": fmt.Sprintf("Event %d", i),
		}
		if _, err := src.UpsertRecord(ctx, catalog.CollectionEvents, fmt.Sprintf("hash-%d", i), record); err != nil {
			t.Fatal(err)
		}
	}

	first, err := src.FetchPage(ctx, catalog.CollectionEvents, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("Expected a full page of 2, got %d", len(first))
	}

	last, err := src.FetchPage(ctx, catalog.CollectionEvents, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 1 {
		t.Errorf("Expected a short final page of 1, got %d", len(last))
	}

	empty, err := src.FetchPage(ctx, catalog.CollectionEvents, 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no rows past the end, got %d", len(empty))
	}
}

func TestFetchPageSeparatesCollections(t *testing.T) {
	src := testSQLiteSource(t)
	ctx := context.Background()

	event := catalog.RawRecord{"id": "evt-1", "title": "Concert"}
	deal := catalog.RawRecord{"id": "deal-1", "title": "Half price wings"}

	if _, err := src.UpsertRecord(ctx, catalog.CollectionEvents, "hash-e", event); err != nil {
		t.Fatal(err)
	}
	if _, err := src.UpsertRecord(ctx, catalog.CollectionDeals, "hash-d", deal); err != nil {
		t.Fatal(err)
	}

	events, err := src.FetchPage(ctx, catalog.CollectionEvents, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Str("id") != "evt-1" {
		t.Errorf("Expected only the event row, got %v", events)
	}
}
