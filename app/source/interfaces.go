package source

import (
	"context"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

// Source is the narrow contract over the remote paginated store. Any
// backend supporting limit/offset row queries per collection satisfies it.
type Source interface {
	FetchPage(ctx context.Context, collection catalog.Collection, limit, offset int) ([]catalog.RawRecord, error)
}

// Inserter is implemented by sources that also accept ingested submission
// rows (the sqlite source; the REST source is read-only).
type Inserter interface {
	UpsertRecord(ctx context.Context, collection catalog.Collection, contentHash string, record catalog.RawRecord) (bool, error)
}
