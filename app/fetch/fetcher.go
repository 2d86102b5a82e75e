package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/source"
)

// PagedFetcher drains a collection from the remote source with sequential
// range requests. The source hard-caps rows per request, so exhaustion is
// signalled by a short page.
type PagedFetcher struct {
	source   source.Source
	pageSize int
	maxRows  int
}

func NewPagedFetcher(src source.Source, pageSize, maxRows int) *PagedFetcher {
	return &PagedFetcher{
		source:   src,
		pageSize: pageSize,
		maxRows:  maxRows,
	}
}

// FetchAll retrieves every row of a collection. A page-level error aborts
// the whole operation; a partial result is never returned as complete.
// Hitting the safety ceiling is logged, not fatal: the caller receives
// what was accumulated.
func (f *PagedFetcher) FetchAll(ctx context.Context, collection catalog.Collection) ([]catalog.RawRecord, error) {
	var all []catalog.RawRecord

	for offset := 0; ; offset += f.pageSize {
		rows, err := f.source.FetchPage(ctx, collection, f.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page at offset %d: %w", offset, err)
		}

		all = append(all, rows...)

		if len(rows) < f.pageSize {
			break
		}

		if len(all) >= f.maxRows {
			slog.Warn("Pagination safety ceiling reached, aborting",
				"collection", string(collection), "rows", len(all), "ceiling", f.maxRows)
			break
		}
	}

	return all, nil
}
