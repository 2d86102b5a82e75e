package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

type fakeSource struct {
	rows    []catalog.RawRecord
	failAt  int
	calls   int
	offsets []int
}

func (f *fakeSource) FetchPage(ctx context.Context, collection catalog.Collection, limit, offset int) ([]catalog.RawRecord, error) {
	f.calls++
	f.offsets = append(f.offsets, offset)

	if f.failAt > 0 && f.calls >= f.failAt {
		return nil, errors.New("connection reset")
	}

	if offset >= len(f.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], nil
}

func makeRows(count int) []catalog.RawRecord {
	rows := make([]catalog.RawRecord, count)
	for i := range rows {
		rows[i] = catalog.RawRecord{"id": fmt.Sprintf("row-%d", i)}
	}
	return rows
}

func TestFetchAllDrainsAllPages(t *testing.T) {
	source := &fakeSource{rows: makeRows(2500)}
	fetcher := NewPagedFetcher(source, 1000, 50000)

	got, err := fetcher.FetchAll(context.Background(), catalog.CollectionEvents)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2500 {
		t.Errorf("Expected 2500 rows, got %d", len(got))
	}
	if source.calls != 3 {
		t.Errorf("Expected 3 page requests, got %d", source.calls)
	}
	if source.offsets[0] != 0 || source.offsets[1] != 1000 || source.offsets[2] != 2000 {
		t.Errorf("Expected sequential offsets, got %v", source.offsets)
	}
}

func TestFetchAllExactPageBoundary(t *testing.T) {
	// A final full page forces one extra empty request to prove exhaustion.
	source := &fakeSource{rows: makeRows(2000)}
	fetcher := NewPagedFetcher(source, 1000, 50000)

	got, err := fetcher.FetchAll(context.Background(), catalog.CollectionEvents)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2000 {
		t.Errorf("Expected 2000 rows, got %d", len(got))
	}
	if source.calls != 3 {
		t.Errorf("Expected 3 page requests, got %d", source.calls)
	}
}

func TestFetchAllEmptyCollection(t *testing.T) {
	source := &fakeSource{}
	fetcher := NewPagedFetcher(source, 1000, 50000)

	got, err := fetcher.FetchAll(context.Background(), catalog.CollectionEvents)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no rows, got %d", len(got))
	}
}

func TestFetchAllPageErrorAbortsWithoutPartial(t *testing.T) {
	source := &fakeSource{rows: makeRows(2500), failAt: 2}
	fetcher := NewPagedFetcher(source, 1000, 50000)

	got, err := fetcher.FetchAll(context.Background(), catalog.CollectionEvents)
	if err == nil {
		t.Fatal("Expected an error from the failing page")
	}
	if got != nil {
		t.Errorf("A failed fetch must not return a partial result, got %d rows", len(got))
	}
}

func TestFetchAllSafetyCeiling(t *testing.T) {
	source := &fakeSource{rows: makeRows(5000)}
	fetcher := NewPagedFetcher(source, 1000, 3000)

	got, err := fetcher.FetchAll(context.Background(), catalog.CollectionEvents)
	if err != nil {
		t.Fatal("Hitting the ceiling is not an error")
	}
	if len(got) != 3000 {
		t.Errorf("Expected accumulated rows up to the ceiling, got %d", len(got))
	}
	if source.calls != 3 {
		t.Errorf("Expected fetching to stop at the ceiling, got %d calls", source.calls)
	}
}
