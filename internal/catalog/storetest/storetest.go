// Package storetest is a conformance suite run against every catalog.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// Day is the reference date the suite's records are placed on.
var Day = time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)

// At returns Day at hh:mm UTC.
func At(hh, mm int) time.Time {
	return Day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

// Ptr returns a pointer to t.
func Ptr(t time.Time) *time.Time { return &t }

// TestStore runs the conformance suite. newStore must return an empty store
// whose schema has already been ensured.
func TestStore(t *testing.T, newStore func(t *testing.T) catalog.Store) {
	t.Run("EnsureSchemaIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.EnsureSchema(ctx))
		require.NoError(t, s.EnsureSchema(ctx))
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("InsertAndSkipDuplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := domain.Record{Filename: "/dcom/a.nc", ObsTime: At(10, 0), Satellite: "MB"}

		outcome, err := s.Insert(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, domain.Inserted, outcome)

		rec.Satellite = "changed"
		outcome, err = s.Insert(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, domain.Skipped, outcome)

		recs, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "MB", recs[0].Satellite, "first write wins")
	})

	t.Run("InsertInvalid", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(context.Background(), domain.Record{Filename: "/dcom/a.nc"})
		assert.ErrorIs(t, err, domain.ErrInvalidRecord)
	})

	t.Run("InsertBatchContinuesPastFailures", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Insert(ctx, domain.Record{Filename: "/dcom/old.nc", ObsTime: At(9, 0)})
		require.NoError(t, err)

		res, err := s.InsertBatch(ctx, []domain.Record{
			{Filename: "/dcom/a.nc", ObsTime: At(10, 0)},
			{Filename: "/dcom/bad.nc"},
			{Filename: "/dcom/old.nc", ObsTime: At(9, 0)},
			{Filename: "/dcom/b.nc", ObsTime: At(11, 0)},
			{Filename: "/dcom/a.nc", ObsTime: At(10, 0)},
		})
		require.NoError(t, err)

		assert.Len(t, res.Inserted, 2)
		assert.Equal(t, 2, res.Skipped)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, "/dcom/bad.nc", res.Failed[0].Filename)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("InsertBatchEmpty", func(t *testing.T) {
		s := newStore(t)
		res, err := s.InsertBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, res.Inserted)
	})

	t.Run("ListRoundTrips", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		want := []domain.Record{
			{Filename: "/dcom/a.nc", ObsTime: At(8, 58).Add(32 * time.Second), ReceiptTime: Ptr(At(9, 35)),
				Instrument: "MIRS", Satellite: "n21", ObsType: "icec_atms_n21_l2"},
			{Filename: "/dcom/b.nc", ObsTime: At(12, 0)},
		}
		_, err := s.InsertBatch(ctx, want)
		require.NoError(t, err)

		got, err := s.List(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("QueryWindowIsInclusive", func(t *testing.T) {
		s := seed(t, newStore(t))
		got, err := s.Query(context.Background(), domain.Predicate{Begin: At(9, 0), End: At(13, 0)})
		require.NoError(t, err)
		assert.Equal(t, []string{"/dcom/09.nc", "/dcom/10.nc", "/dcom/12.nc", "/dcom/13.nc"}, got)
	})

	t.Run("QueryFiltersAreConjunctive", func(t *testing.T) {
		s := seed(t, newStore(t))
		ctx := context.Background()
		all := domain.Predicate{Begin: At(0, 0), End: At(23, 59)}

		bySat := all
		bySat.Satellite = "MB"
		got, err := s.Query(ctx, bySat)
		require.NoError(t, err)
		assert.Equal(t, []string{"/dcom/10.nc", "/dcom/12.nc", "/dcom/15.nc"}, got)

		both := bySat
		both.Instrument = "AVHRRF"
		got, err = s.Query(ctx, both)
		require.NoError(t, err)
		assert.Equal(t, []string{"/dcom/10.nc", "/dcom/12.nc"}, got)

		all3 := both
		all3.ObsType = "SSTskin"
		got, err = s.Query(ctx, all3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("QueryReceiptCutoff", func(t *testing.T) {
		s := seed(t, newStore(t))
		p := domain.Predicate{Begin: At(0, 0), End: At(23, 59), ReceiptCutoff: Ptr(At(13, 0))}

		got, err := s.Query(context.Background(), p)
		require.NoError(t, err)
		// 09 has no receipt, 10 arrived before, 12 exactly at the cutoff;
		// 13 and 15 arrived after it.
		assert.Equal(t, []string{"/dcom/09.nc", "/dcom/10.nc", "/dcom/12.nc"}, got)
	})

	t.Run("QueryEmpty", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Query(context.Background(), domain.Predicate{Begin: At(0, 0), End: At(23, 0)})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}

func seed(t *testing.T, s catalog.Store) catalog.Store {
	t.Helper()
	_, err := s.InsertBatch(context.Background(), []domain.Record{
		{Filename: "/dcom/09.nc", ObsTime: At(9, 0), Instrument: "VIIRS", Satellite: "N20"},
		{Filename: "/dcom/10.nc", ObsTime: At(10, 0), ReceiptTime: Ptr(At(10, 30)), Instrument: "AVHRRF", Satellite: "MB", ObsType: "SSTsubskin"},
		{Filename: "/dcom/12.nc", ObsTime: At(12, 0), ReceiptTime: Ptr(At(13, 0)), Instrument: "AVHRRF", Satellite: "MB", ObsType: "SSTsubskin"},
		{Filename: "/dcom/13.nc", ObsTime: At(13, 0), ReceiptTime: Ptr(At(13, 0).Add(time.Microsecond)), Instrument: "AVHRRF", Satellite: "MC"},
		{Filename: "/dcom/15.nc", ObsTime: At(15, 0), ReceiptTime: Ptr(At(15, 20)), Instrument: "VIIRS", Satellite: "MB"},
	})
	require.NoError(t, err)
	return s
}
