package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

func TestQueryFlags_Cycle(t *testing.T) {
	req, err := queryFlags{cycle: "2025031612", windowHours: 3, checkReceipt: "GDAS", satellite: "MB"}.request()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC), req.WindowBegin)
	assert.Equal(t, time.Date(2025, 3, 16, 15, 0, 0, 0, time.UTC), req.WindowEnd)
	assert.Equal(t, domain.ReceiptModeGDAS, req.CheckReceipt)
	assert.Equal(t, "MB", req.Satellite)
}

func TestQueryFlags_BeginEnd(t *testing.T) {
	req, err := queryFlags{begin: "2025-03-16T10:00:00+01:00", end: "2025-03-16T15:00:00Z", checkReceipt: "none"}.request()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC), req.WindowBegin)
	assert.Equal(t, time.UTC, req.WindowBegin.Location())
	assert.Equal(t, time.Date(2025, 3, 16, 15, 0, 0, 0, time.UTC), req.WindowEnd)
}

func TestQueryFlags_Errors(t *testing.T) {
	for name, f := range map[string]queryFlags{
		"bad mode":        {cycle: "2025031612", checkReceipt: "ecmwf"},
		"bad cycle":       {cycle: "20250316", checkReceipt: "none"},
		"negative window": {cycle: "2025031612", windowHours: -1, checkReceipt: "none"},
		"NaN window":      {cycle: "2025031612", windowHours: math.NaN(), checkReceipt: "none"},
		"infinite window": {cycle: "2025031612", windowHours: math.Inf(1), checkReceipt: "none"},
		"huge window":     {cycle: "2025031612", windowHours: 1e300, checkReceipt: "none"},
		"bad begin":       {begin: "yesterday", end: "2025-03-16T15:00:00Z", checkReceipt: "none"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.request()
			assert.Error(t, err)
		})
	}
}
