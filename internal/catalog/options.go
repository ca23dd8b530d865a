package catalog

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/obs-catalog-service/internal/observability"
	"github.com/couchcryptid/obs-catalog-service/internal/pipeline"
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

// WithNotifier publishes newly inserted records after each ingest.
func WithNotifier(n Notifier) Option {
	return func(c *Catalog) { c.notifier = n }
}

// WithClock replaces the real clock, used in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Catalog) { c.clock = clock }
}

// WithReceiptFunc overrides how filesystem receipt times are read.
func WithReceiptFunc(fn pipeline.ReceiptFunc) Option {
	return func(c *Catalog) { c.receipt = fn }
}

// WithExtractor overrides file discovery, e.g. to ingest an explicit file list.
func WithExtractor(e pipeline.Extractor) Option {
	return func(c *Catalog) { c.extractor = e }
}
