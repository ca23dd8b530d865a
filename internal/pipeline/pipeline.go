package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
	"github.com/couchcryptid/obs-catalog-service/internal/observability"
)

// Extractor lists candidate observation files.
type Extractor interface {
	Extract(ctx context.Context) ([]string, error)
}

// Transformer turns a discovered path into a catalog record.
type Transformer interface {
	Transform(ctx context.Context, path string) (domain.Record, error)
}

// BatchLoader writes records to the catalog store.
type BatchLoader interface {
	InsertBatch(ctx context.Context, recs []domain.Record) (domain.BatchResult, error)
}

// Scanner runs one discover-parse-insert pass for a provider. It keeps no
// state between runs; every Scan re-lists the filesystem.
type Scanner struct {
	provider    string
	extractor   Extractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// New creates a Scanner with the given stages and observability. A nil
// logger discards output; a nil clock uses the real clock.
func New(provider string, e Extractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Scanner {
	if logger == nil {
		logger = observability.Discard()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scanner{
		provider:    provider,
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
	}
}

// Scan discovers, parses and inserts files. Files the grammar rejects and
// records the store refuses are reported, not returned as errors. The
// returned records are the ones newly inserted by this run.
func (s *Scanner) Scan(ctx context.Context) (domain.ScanReport, []domain.Record, error) {
	start := s.clock.Now()
	report := domain.ScanReport{
		ScanID:    uuid.NewString(),
		Provider:  s.provider,
		StartedAt: start.UTC(),
	}
	logger := s.logger.With("provider", s.provider, "scan_id", report.ScanID)

	paths, err := s.extractor.Extract(ctx)
	if err != nil {
		return report, nil, fmt.Errorf("discover %s files: %w", s.provider, err)
	}
	report.Discovered = len(paths)

	recs := s.transformAll(ctx, logger, paths, &report)
	if err := ctx.Err(); err != nil {
		return report, nil, err
	}

	var inserted []domain.Record
	if len(recs) > 0 {
		res, err := s.loader.InsertBatch(ctx, recs)
		if err != nil {
			return report, nil, fmt.Errorf("load %s batch: %w", s.provider, err)
		}
		inserted = res.Inserted
		report.Inserted = len(res.Inserted)
		report.Skipped = res.Skipped
		report.Failed = res.Failed
		for _, f := range res.Failed {
			logger.Warn("insert failed, skipping file", "path", f.Filename, "error", f.Error)
		}
	}

	report.Duration = s.clock.Since(start)
	s.observe(report)

	logger.Info("scan complete",
		"discovered", report.Discovered,
		"parsed", report.Parsed,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"rejected", len(report.Rejected),
		"failed", len(report.Failed),
		"duration", report.Duration,
	)
	return report, inserted, nil
}

func (s *Scanner) transformAll(ctx context.Context, logger *slog.Logger, paths []string, report *domain.ScanReport) []domain.Record {
	recs := make([]domain.Record, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil
		}
		rec, err := s.transformer.Transform(ctx, path)
		if err != nil {
			logger.Debug("rejected file", "path", path, "error", err)
			report.Rejected = append(report.Rejected, domain.Rejection{Path: path, Reason: rejectionReason(err)})
			continue
		}
		recs = append(recs, rec)
	}
	report.Parsed = len(recs)
	return recs
}

func (s *Scanner) observe(report domain.ScanReport) {
	if s.metrics == nil {
		return
	}
	p := s.provider
	s.metrics.FilesDiscovered.WithLabelValues(p).Add(float64(report.Discovered))
	s.metrics.FilesIngested.WithLabelValues(p).Add(float64(report.Inserted))
	s.metrics.FilesSkipped.WithLabelValues(p).Add(float64(report.Skipped))
	s.metrics.ParseFailures.WithLabelValues(p).Add(float64(len(report.Rejected)))
	s.metrics.InsertFailures.WithLabelValues(p).Add(float64(len(report.Failed)))
	s.metrics.IngestDuration.WithLabelValues(p).Observe(report.Duration.Seconds())
}

func rejectionReason(err error) string {
	var perr *domain.ParseError
	if errors.As(err, &perr) {
		return perr.Reason
	}
	return err.Error()
}
