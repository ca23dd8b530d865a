package catalog

import (
	"context"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// ErrStoreUnavailable is returned when a catalog store cannot be opened,
// created or reached.
var ErrStoreUnavailable = domain.ErrStoreUnavailable

// Store is the durable, append-only index of observation files. A record is
// never updated or deleted; inserting a filename that is already cataloged
// is a no-op reported as domain.Skipped.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, rec domain.Record) (domain.InsertOutcome, error)
	InsertBatch(ctx context.Context, recs []domain.Record) (domain.BatchResult, error)
	Query(ctx context.Context, p domain.Predicate) ([]string, error)
	List(ctx context.Context) ([]domain.Record, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Querier is the read side of Store used by the retriever.
type Querier interface {
	Query(ctx context.Context, p domain.Predicate) ([]string, error)
}

// Notifier publishes records newly inserted by an ingest run.
type Notifier interface {
	Notify(ctx context.Context, report domain.ScanReport, recs []domain.Record) error
}
