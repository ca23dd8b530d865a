package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidReceiptMode is returned for a check_receipt value other than none, gdas or gfs.
var ErrInvalidReceiptMode = errors.New("invalid receipt mode")

// ReceiptMode selects which operational run realtime emulation replays.
type ReceiptMode string

const (
	ReceiptModeNone ReceiptMode = "none"
	ReceiptModeGDAS ReceiptMode = "gdas"
	ReceiptModeGFS  ReceiptMode = "gfs"
)

// Latency allowances per operational run, measured back from the window end.
const (
	gdasAllowance = 160 * time.Minute
	gfsAllowance  = 20 * time.Minute
)

// ParseReceiptMode accepts none, gdas or gfs in any case. An empty string means none.
func ParseReceiptMode(s string) (ReceiptMode, error) {
	switch m := ReceiptMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ReceiptModeNone:
		return ReceiptModeNone, nil
	case ReceiptModeGDAS, ReceiptModeGFS:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want none, gdas or gfs)", ErrInvalidReceiptMode, s)
	}
}

// Allowance returns the latency allowance for the mode; zero for none.
func (m ReceiptMode) Allowance() time.Duration {
	switch m {
	case ReceiptModeGDAS:
		return gdasAllowance
	case ReceiptModeGFS:
		return gfsAllowance
	default:
		return 0
	}
}

// Cutoff returns the latest receipt time an operational run ending at
// windowEnd could have seen. ok is false when the mode disables emulation.
func (m ReceiptMode) Cutoff(windowEnd time.Time) (cutoff time.Time, ok bool) {
	if m != ReceiptModeGDAS && m != ReceiptModeGFS {
		return time.Time{}, false
	}
	return windowEnd.Add(-m.Allowance()), true
}

// MaxWindowHours bounds the half-width accepted for a cycle window.
const MaxWindowHours = 7 * 24

// WindowHalfWidth converts a half-width in hours to a duration. It rejects
// values that are negative, not finite or above MaxWindowHours.
func WindowHalfWidth(hours float64) (time.Duration, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 || hours > MaxWindowHours {
		return 0, fmt.Errorf("window hours %v: want a value in [0, %d]", hours, MaxWindowHours)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}

// CycleWindow returns the assimilation window [cycle-halfWidth, cycle+halfWidth].
func CycleWindow(cycle time.Time, halfWidth time.Duration) (begin, end time.Time) {
	return cycle.Add(-halfWidth), cycle.Add(halfWidth)
}

// ParseCycle parses a cycle given as YYYYMMDDHH or YYYYMMDDHHMMSS (UTC).
func ParseCycle(s string) (time.Time, error) {
	switch len(s) {
	case len("2006010215"):
		return time.Parse("2006010215", s)
	case len(stampLayout):
		return time.Parse(stampLayout, s)
	default:
		return time.Time{}, fmt.Errorf("cycle %q: want YYYYMMDDHH or YYYYMMDDHHMMSS", s)
	}
}
