package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrParseFailure matches every filename the bound grammar rejects.
	ErrParseFailure = errors.New("filename does not match grammar")

	// ErrUnknownProvider is returned when no grammar is registered for a provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrStoreUnavailable wraps failures to open, create or reach a catalog store.
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrInvalidRecord is reported per record when a batch entry cannot be stored.
	ErrInvalidRecord = errors.New("invalid record")
)

// Record is one cataloged observation file.
type Record struct {
	Filename    string     `json:"filename"`
	ObsTime     time.Time  `json:"obs_time"`
	ReceiptTime *time.Time `json:"receipt_time,omitempty"`
	Instrument  string     `json:"instrument,omitempty"`
	Satellite   string     `json:"satellite,omitempty"`
	ObsType     string     `json:"obs_type,omitempty"`
}

// Validate reports whether r can be stored.
func (r Record) Validate() error {
	if r.Filename == "" {
		return fmt.Errorf("%w: empty filename", ErrInvalidRecord)
	}
	if r.ObsTime.IsZero() {
		return fmt.Errorf("%w: %s has no obs_time", ErrInvalidRecord, r.Filename)
	}
	return nil
}

// ParseError describes why a grammar rejected a path.
type ParseError struct {
	Provider string
	Path     string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %s: %s", e.Provider, e.Path, e.Reason)
}

// Is lets errors.Is(err, ErrParseFailure) match any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

// InsertOutcome is the result of storing a single record.
type InsertOutcome int

const (
	// Inserted means the filename was new and a row was written.
	Inserted InsertOutcome = iota + 1
	// Skipped means the filename was already cataloged.
	Skipped
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// FailedRecord is a batch entry that could not be stored.
type FailedRecord struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchResult summarizes a batch insert. Failed entries do not abort the batch.
type BatchResult struct {
	Inserted []Record       `json:"-"`
	Skipped  int            `json:"skipped"`
	Failed   []FailedRecord `json:"failed,omitempty"`
}

// Predicate is a conjunctive catalog filter. Empty strings match any value.
// A nil ReceiptCutoff disables the receipt filter.
type Predicate struct {
	Begin         time.Time
	End           time.Time
	Instrument    string
	Satellite     string
	ObsType       string
	ReceiptCutoff *time.Time
}

// Rejection is a discovered file the grammar did not accept.
type Rejection struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ScanReport is the structured outcome of one ingestion run.
type ScanReport struct {
	ScanID     string         `json:"scan_id"`
	Provider   string         `json:"provider"`
	Discovered int            `json:"discovered"`
	Parsed     int            `json:"parsed"`
	Inserted   int            `json:"inserted"`
	Skipped    int            `json:"skipped"`
	Rejected   []Rejection    `json:"rejected,omitempty"`
	Failed     []FailedRecord `json:"failed,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	Duration   time.Duration  `json:"duration"`
}
