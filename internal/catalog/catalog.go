package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/obs-catalog-service/internal/adapter/fs"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
	"github.com/couchcryptid/obs-catalog-service/internal/observability"
	"github.com/couchcryptid/obs-catalog-service/internal/pipeline"
)

// ErrIngestInProgress is returned by TryIngest when another run holds the catalog.
var ErrIngestInProgress = errors.New("ingest already in progress")

// Catalog is the observation file catalog of a single provider.
// It is safe for concurrent use; all state lives in the store.
type Catalog struct {
	cfg       domain.CatalogConfig
	store     Store
	scanner   *pipeline.Scanner
	retriever *Retriever

	logger    *slog.Logger
	metrics   *observability.Metrics
	notifier  Notifier
	clock     clockwork.Clock
	receipt   pipeline.ReceiptFunc
	extractor pipeline.Extractor

	ingestMu   sync.Mutex
	lastReport atomic.Pointer[domain.ScanReport]
}

// New binds cfg to store and makes sure the store's schema exists.
func New(ctx context.Context, cfg domain.CatalogConfig, store Store, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		cfg:     cfg,
		store:   store,
		logger:  observability.Discard(),
		clock:   clockwork.NewRealClock(),
		receipt: fs.ReceiptTime,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.extractor == nil {
		c.extractor = fs.NewSource(cfg.FilePatterns())
	}

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", cfg.Provider, err)
	}

	c.scanner = pipeline.New(cfg.Provider, c.extractor, pipeline.NewTransformer(cfg.Grammar, c.receipt), store, c.logger, c.metrics, c.clock)
	c.retriever = NewRetriever(cfg.Provider, store, c.metrics, c.clock)
	return c, nil
}

// Provider returns the provider name the catalog is bound to.
func (c *Catalog) Provider() string { return c.cfg.Provider }

// Config returns the catalog configuration.
func (c *Catalog) Config() domain.CatalogConfig { return c.cfg }

// Store returns the underlying store.
func (c *Catalog) Store() Store { return c.store }

// Ingest scans the provider's directories and inserts every file not yet
// cataloged. It waits for a concurrent run to finish first.
func (c *Catalog) Ingest(ctx context.Context) (domain.ScanReport, error) {
	c.ingestMu.Lock()
	defer c.ingestMu.Unlock()
	return c.ingest(ctx)
}

// TryIngest is Ingest for triggers that should be dropped rather than queued
// when a run is already in progress.
func (c *Catalog) TryIngest(ctx context.Context) (domain.ScanReport, error) {
	if !c.ingestMu.TryLock() {
		if c.metrics != nil {
			c.metrics.IngestsDropped.WithLabelValues(c.cfg.Provider).Inc()
		}
		return domain.ScanReport{}, ErrIngestInProgress
	}
	defer c.ingestMu.Unlock()
	return c.ingest(ctx)
}

func (c *Catalog) ingest(ctx context.Context) (domain.ScanReport, error) {
	report, inserted, err := c.scanner.Scan(ctx)
	if err != nil {
		return report, err
	}
	c.lastReport.Store(&report)

	if c.notifier != nil && len(inserted) > 0 {
		if err := c.notifier.Notify(ctx, report, inserted); err != nil {
			c.logger.Warn("publish notifications failed", "provider", c.cfg.Provider, "scan_id", report.ScanID, "error", err)
			if c.metrics != nil {
				c.metrics.PublishErrors.WithLabelValues(c.cfg.Provider).Inc()
			}
		}
	}
	return report, nil
}

// LastReport returns the report of the most recent successful ingest.
func (c *Catalog) LastReport() (domain.ScanReport, bool) {
	r := c.lastReport.Load()
	if r == nil {
		return domain.ScanReport{}, false
	}
	return *r, true
}

// Query returns the filenames valid for the requested window.
func (c *Catalog) Query(ctx context.Context, req QueryRequest) ([]string, error) {
	return c.retriever.Files(ctx, req)
}

// Count returns the number of cataloged files.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}

// Close closes the store.
func (c *Catalog) Close() error {
	return c.store.Close()
}
