// Package sqlite provides the default file-backed catalog store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

//go:embed schema.sql
var schema string

// timeFormat is fixed width so lexical order in SQL equals time order.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// busyTimeout lets a writer wait on another process holding the lock.
const busyTimeout = 5 * time.Second

// Store is a SQLite catalog holding a single obs_files table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the catalog database at path. Failures wrap
// domain.ErrStoreUnavailable.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create catalog directory: %w", domain.ErrStoreUnavailable, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", domain.ErrStoreUnavailable, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set journal_mode: %w", domain.ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set busy_timeout: %w", domain.ErrStoreUnavailable, err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// EnsureSchema creates the obs_files table and its index if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create schema: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

const insertSQL = `INSERT INTO obs_files (filename, obs_time, receipt_time, instrument, satellite, obs_type)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(filename) DO NOTHING`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert stores rec unless its filename is already cataloged.
func (s *Store) Insert(ctx context.Context, rec domain.Record) (domain.InsertOutcome, error) {
	return insert(ctx, s.db, rec)
}

func insert(ctx context.Context, ex execer, rec domain.Record) (domain.InsertOutcome, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, insertSQL,
		rec.Filename,
		formatTime(rec.ObsTime),
		formatTimePtr(rec.ReceiptTime),
		nullString(rec.Instrument),
		nullString(rec.Satellite),
		nullString(rec.ObsType),
	)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", rec.Filename, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert %s: rows affected: %w", rec.Filename, err)
	}
	if n == 0 {
		return domain.Skipped, nil
	}
	return domain.Inserted, nil
}

// InsertBatch inserts recs in one transaction. A record that fails is reported
// in the result and the rest of the batch is still written.
func (s *Store) InsertBatch(ctx context.Context, recs []domain.Record) (domain.BatchResult, error) {
	var result domain.BatchResult
	if len(recs) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("%w: begin: %w", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, rec := range recs {
		outcome, err := insert(ctx, tx, rec)
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

	if err := tx.Commit(); err != nil {
		return domain.BatchResult{}, fmt.Errorf("%w: commit: %w", domain.ErrStoreUnavailable, err)
	}
	return result, nil
}

// Query returns the filenames satisfying p ordered by obs_time then filename.
func (s *Store) Query(ctx context.Context, p domain.Predicate) ([]string, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT filename FROM obs_files WHERE obs_time >= ? AND obs_time <= ?")
	args = append(args, formatTime(p.Begin), formatTime(p.End))

	for _, f := range []struct{ column, value string }{
		{"instrument", p.Instrument},
		{"satellite", p.Satellite},
		{"obs_type", p.ObsType},
	} {
		if f.value != "" {
			sb.WriteString(" AND " + f.column + " = ?")
			args = append(args, f.value)
		}
	}
	if p.ReceiptCutoff != nil {
		sb.WriteString(" AND (receipt_time IS NULL OR receipt_time <= ?)")
		args = append(args, formatTime(*p.ReceiptCutoff))
	}
	sb.WriteString(" ORDER BY obs_time, filename")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filename: %w", err)
		}
		files = append(files, name)
	}
	return files, rows.Err()
}

// List returns every stored record ordered by obs_time then filename.
func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, obs_time, receipt_time, instrument, satellite, obs_type
FROM obs_files ORDER BY obs_time, filename`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		var rec domain.Record
		var obsTime string
		var receipt, instr, sat, obsType sql.NullString
		if err := rows.Scan(&rec.Filename, &obsTime, &receipt, &instr, &sat, &obsType); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.ObsTime, err = time.Parse(timeFormat, obsTime); err != nil {
			return nil, fmt.Errorf("parse obs_time of %s: %w", rec.Filename, err)
		}
		if receipt.Valid {
			t, err := time.Parse(timeFormat, receipt.String)
			if err != nil {
				return nil, fmt.Errorf("parse receipt_time of %s: %w", rec.Filename, err)
			}
			rec.ReceiptTime = &t
		}
		rec.Instrument, rec.Satellite, rec.ObsType = instr.String, sat.String, obsType.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Count returns the number of cataloged files.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM obs_files").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
