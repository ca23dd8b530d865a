package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceiptMode(t *testing.T) {
	for in, want := range map[string]ReceiptMode{
		"":      ReceiptModeNone,
		"none":  ReceiptModeNone,
		"gdas":  ReceiptModeGDAS,
		"GDAS":  ReceiptModeGDAS,
		" gfs ": ReceiptModeGFS,
		"Gfs":   ReceiptModeGFS,
		"NONE":  ReceiptModeNone,
	} {
		got, err := ParseReceiptMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	t.Run("rejects unknown mode", func(t *testing.T) {
		_, err := ParseReceiptMode("ecmwf")
		assert.ErrorIs(t, err, ErrInvalidReceiptMode)
	})
}

func TestReceiptMode_Cutoff(t *testing.T) {
	end := time.Date(2025, 3, 16, 15, 0, 0, 0, time.UTC)

	t.Run("gdas", func(t *testing.T) {
		cutoff, ok := ReceiptModeGDAS.Cutoff(end)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 3, 16, 12, 20, 0, 0, time.UTC), cutoff)
	})

	t.Run("gfs", func(t *testing.T) {
		cutoff, ok := ReceiptModeGFS.Cutoff(end)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 3, 16, 14, 40, 0, 0, time.UTC), cutoff)
	})

	t.Run("none disables the filter", func(t *testing.T) {
		_, ok := ReceiptModeNone.Cutoff(end)
		assert.False(t, ok)
		_, ok = ReceiptMode("bogus").Cutoff(end)
		assert.False(t, ok)
	})

	t.Run("gdas is stricter than gfs", func(t *testing.T) {
		gdas, _ := ReceiptModeGDAS.Cutoff(end)
		gfs, _ := ReceiptModeGFS.Cutoff(end)
		assert.True(t, gdas.Before(gfs))
	})
}

func TestReceiptMode_Allowance(t *testing.T) {
	assert.Equal(t, 160*time.Minute, ReceiptModeGDAS.Allowance())
	assert.Equal(t, 20*time.Minute, ReceiptModeGFS.Allowance())
	assert.Zero(t, ReceiptModeNone.Allowance())
}

func TestCycleWindow(t *testing.T) {
	cycle := time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC)
	begin, end := CycleWindow(cycle, 3*time.Hour)

	assert.Equal(t, time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC), begin)
	assert.Equal(t, time.Date(2025, 3, 16, 15, 0, 0, 0, time.UTC), end)
}

func TestWindowHalfWidth(t *testing.T) {
	got, err := WindowHalfWidth(1.5)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got)

	got, err = WindowHalfWidth(0)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = WindowHalfWidth(MaxWindowHours)
	require.NoError(t, err)
	assert.Equal(t, MaxWindowHours*time.Hour, got)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1), 1e300, MaxWindowHours + 0.5} {
		_, err := WindowHalfWidth(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestParseCycle(t *testing.T) {
	got, err := ParseCycle("2025031612")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC), got)

	got, err = ParseCycle("20250316063000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 16, 6, 30, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "20250316", "2025031624", "abcdefghij"} {
		_, err := ParseCycle(bad)
		assert.Error(t, err, bad)
	}
}
