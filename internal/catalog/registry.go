package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
	"github.com/couchcryptid/obs-catalog-service/internal/observability"
)

// Registry holds the catalogs served by one process, keyed by provider.
type Registry struct {
	catalogs map[string]*Catalog
	names    []string
	logger   *slog.Logger
	ingested atomic.Bool
}

// NewRegistry creates a Registry. Duplicate providers are rejected.
func NewRegistry(logger *slog.Logger, catalogs ...*Catalog) (*Registry, error) {
	if logger == nil {
		logger = observability.Discard()
	}
	r := &Registry{catalogs: make(map[string]*Catalog, len(catalogs)), logger: logger}
	for _, c := range catalogs {
		if _, dup := r.catalogs[c.Provider()]; dup {
			return nil, fmt.Errorf("duplicate catalog for provider %q", c.Provider())
		}
		r.catalogs[c.Provider()] = c
		r.names = append(r.names, c.Provider())
	}
	sort.Strings(r.names)
	return r, nil
}

// Providers returns the registered provider names in sorted order.
func (r *Registry) Providers() []string {
	return append([]string(nil), r.names...)
}

// Get returns the catalog for provider.
func (r *Registry) Get(provider string) (*Catalog, error) {
	c, ok := r.catalogs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}
	return c, nil
}

// Ingest runs a non-blocking ingest of one provider. It returns
// ErrIngestInProgress when that catalog is already being ingested.
func (r *Registry) Ingest(ctx context.Context, provider string) (domain.ScanReport, error) {
	c, err := r.Get(provider)
	if err != nil {
		return domain.ScanReport{}, err
	}
	report, err := c.TryIngest(ctx)
	if err != nil {
		return report, err
	}
	r.ingested.Store(true)
	return report, nil
}

// Trigger ingests one provider and logs the outcome. It is the callback
// used by the scheduler and the watcher.
func (r *Registry) Trigger(ctx context.Context, provider string) {
	_, err := r.Ingest(ctx, provider)
	switch {
	case err == nil:
	case errors.Is(err, ErrIngestInProgress):
		r.logger.Info("ingest already running, trigger dropped", "provider", provider)
	default:
		r.logger.Error("ingest failed", "provider", provider, "error", err)
	}
}

// TriggerAll triggers every catalog in turn.
func (r *Registry) TriggerAll(ctx context.Context) {
	for _, name := range r.names {
		if ctx.Err() != nil {
			return
		}
		r.Trigger(ctx, name)
	}
}

// CheckReadiness reports ready once every store answers a ping and at least
// one ingest run has completed.
func (r *Registry) CheckReadiness(ctx context.Context) error {
	for _, name := range r.names {
		if err := r.catalogs[name].Store().Ping(ctx); err != nil {
			return fmt.Errorf("catalog %s: %w", name, err)
		}
	}
	if !r.ingested.Load() {
		return errors.New("no ingest run has completed yet")
	}
	return nil
}

// Close closes every catalog and joins their errors.
func (r *Registry) Close() error {
	var errs []error
	for _, name := range r.names {
		if err := r.catalogs[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
