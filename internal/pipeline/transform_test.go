package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
	"github.com/couchcryptid/obs-catalog-service/internal/pipeline"
)

func TestGrammarTransformer(t *testing.T) {
	received := time.Date(2025, 3, 16, 13, 5, 0, 0, time.FixedZone("EST", -5*3600))
	stat := func(string) (time.Time, error) { return received, nil }

	t.Run("stamps filesystem receipt in UTC", func(t *testing.T) {
		g, err := domain.LookupGrammar(domain.ProviderGHRSST)
		require.NoError(t, err)

		rec, err := pipeline.NewTransformer(g, stat).Transform(context.Background(),
			"/dcom/20250316/sst/20250316120000-OSPO-L3U_GHRSST-SSTsubskin-AVHRRF_MB-ACSPO.nc")
		require.NoError(t, err)
		require.NotNil(t, rec.ReceiptTime)
		assert.True(t, received.Equal(*rec.ReceiptTime))
		assert.Equal(t, time.UTC, rec.ReceiptTime.Location())
	})

	t.Run("marker receipt is not overwritten", func(t *testing.T) {
		g, err := domain.LookupGrammar(domain.ProviderJRRAOD)
		require.NoError(t, err)

		rec, err := pipeline.NewTransformer(g, stat).Transform(context.Background(),
			"/dcom/20250316/jrr_aod/JRR-AOD_v3r2_n21_s202503161200000_e202503161230000_c202503161245000.nc")
		require.NoError(t, err)
		require.NotNil(t, rec.ReceiptTime)
		assert.Equal(t, time.Date(2025, 3, 16, 12, 45, 0, 0, time.UTC), *rec.ReceiptTime)
	})

	t.Run("stat failure rejects the file", func(t *testing.T) {
		g, err := domain.LookupGrammar(domain.ProviderRADS)
		require.NoError(t, err)
		failing := func(string) (time.Time, error) { return time.Time{}, errors.New("vanished") }

		_, err = pipeline.NewTransformer(g, failing).Transform(context.Background(), "rads_adt_j3_2025075.nc")
		assert.ErrorContains(t, err, "vanished")
	})

	t.Run("parse failure", func(t *testing.T) {
		g, err := domain.LookupGrammar(domain.ProviderRADS)
		require.NoError(t, err)

		_, err = pipeline.NewTransformer(g, stat).Transform(context.Background(), "junk.nc")
		assert.ErrorIs(t, err, domain.ErrParseFailure)
	})
}
