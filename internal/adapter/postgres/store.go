// Package postgres provides a PostgreSQL catalog store for deployments that
// share one database between service replicas.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// Store keeps one provider's records in its own obs_files_<provider> table.
type Store struct {
	pool  *pgxpool.Pool
	name  string
	table string
	owned bool
}

// Open connects to databaseURL and returns a store for provider. The pool is
// closed with the store.
func Open(ctx context.Context, databaseURL, provider string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database URL: %w", domain.ErrStoreUnavailable, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create connection pool: %w", domain.ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrStoreUnavailable, err)
	}

	s := NewStore(pool, provider)
	s.owned = true
	return s, nil
}

// NewStore returns a store for provider on an existing pool. Closing the
// store leaves the pool open.
func NewStore(pool *pgxpool.Pool, provider string) *Store {
	name := TableName(provider)
	return &Store{
		pool:  pool,
		name:  name,
		table: pgx.Identifier{name}.Sanitize(),
	}
}

// TableName returns the table holding provider's records.
func TableName(provider string) string {
	return "obs_files_" + strings.ToLower(provider)
}

// Table returns the unquoted table name.
func (s *Store) Table() string { return s.name }

// Close releases the pool if the store opened it.
func (s *Store) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// EnsureSchema creates the table and its obs_time index if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id           BIGSERIAL PRIMARY KEY,
			filename     TEXT NOT NULL UNIQUE,
			obs_time     TIMESTAMPTZ NOT NULL,
			receipt_time TIMESTAMPTZ,
			instrument   TEXT,
			satellite    TEXT,
			obs_type     TEXT
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (obs_time)`,
			pgx.Identifier{s.name + "_obs_time_idx"}.Sanitize(), s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: create schema: %w", domain.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// Insert stores rec unless its filename is already cataloged.
func (s *Store) Insert(ctx context.Context, rec domain.Record) (domain.InsertOutcome, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (filename, obs_time, receipt_time, instrument, satellite, obs_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (filename) DO NOTHING`, s.table)

	tag, err := s.pool.Exec(ctx, query,
		rec.Filename,
		rec.ObsTime.UTC(),
		utcPtr(rec.ReceiptTime),
		nullString(rec.Instrument),
		nullString(rec.Satellite),
		nullString(rec.ObsType),
	)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", rec.Filename, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Skipped, nil
	}
	return domain.Inserted, nil
}

// InsertBatch inserts recs one statement at a time so that a refused record
// does not roll back the others.
func (s *Store) InsertBatch(ctx context.Context, recs []domain.Record) (domain.BatchResult, error) {
	var result domain.BatchResult
	if len(recs) == 0 {
		return result, nil
	}
	if err := s.Ping(ctx); err != nil {
		return result, err
	}

	for _, rec := range recs {
		outcome, err := s.Insert(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return domain.BatchResult{}, ctx.Err()
			}
			result.Failed = append(result.Failed, domain.FailedRecord{Filename: rec.Filename, Error: err.Error()})
			continue
		}
		switch outcome {
		case domain.Inserted:
			result.Inserted = append(result.Inserted, rec)
		case domain.Skipped:
			result.Skipped++
		}
	}
	return result, nil
}

// Query returns the filenames satisfying p ordered by obs_time then filename.
func (s *Store) Query(ctx context.Context, p domain.Predicate) ([]string, error) {
	var sb strings.Builder
	args := []any{p.Begin.UTC(), p.End.UTC()}
	fmt.Fprintf(&sb, "SELECT filename FROM %s WHERE obs_time >= $1 AND obs_time <= $2", s.table)

	for _, f := range []struct{ column, value string }{
		{"instrument", p.Instrument},
		{"satellite", p.Satellite},
		{"obs_type", p.ObsType},
	} {
		if f.value != "" {
			args = append(args, f.value)
			fmt.Fprintf(&sb, " AND %s = $%d", f.column, len(args))
		}
	}
	if p.ReceiptCutoff != nil {
		args = append(args, p.ReceiptCutoff.UTC())
		fmt.Fprintf(&sb, " AND (receipt_time IS NULL OR receipt_time <= $%d)", len(args))
	}
	sb.WriteString(" ORDER BY obs_time, filename")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrStoreUnavailable, err)
	}
	files, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect filenames: %w", err)
	}
	return files, nil
}

// List returns every stored record ordered by obs_time then filename.
func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT filename, obs_time, receipt_time, instrument, satellite, obs_type FROM %s ORDER BY obs_time, filename`,
		s.table))
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		var rec domain.Record
		var receipt *time.Time
		var instr, sat, obsType *string
		if err := rows.Scan(&rec.Filename, &rec.ObsTime, &receipt, &instr, &sat, &obsType); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.ObsTime = rec.ObsTime.UTC()
		if receipt != nil {
			t := receipt.UTC()
			rec.ReceiptTime = &t
		}
		rec.Instrument, rec.Satellite, rec.ObsType = deref(instr), deref(sat), deref(obsType)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Count returns the number of cataloged files.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
