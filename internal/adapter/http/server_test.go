package http_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/obs-catalog-service/internal/adapter/http"
	"github.com/couchcryptid/obs-catalog-service/internal/adapter/sqlite"
	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
	"github.com/couchcryptid/obs-catalog-service/internal/scheduler"
)

const (
	sst10 = "20250316100000-OSPO-L3U_GHRSST-SSTsubskin-AVHRRF_MB-ACSPO.nc"
	sst12 = "20250316120000-OSPO-L3U_GHRSST-SSTsubskin-AVHRRF_MB-ACSPO.nc"
	sst15 = "20250316150000-OSPO-L3U_GHRSST-SSTsubskin-AVHRRF_MB-ACSPO.nc"
)

type fixture struct {
	srv  *httpadapter.Server
	reg  *catalog.Registry
	dir  string
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "20250316", "sst")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{sst10, sst12, sst15} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	cfg, err := domain.NewCatalogConfig(domain.ProviderGHRSST, root, nil, filepath.Join(t.TempDir(), "ghrsst.db"))
	require.NoError(t, err)
	store, err := sqlite.Open(cfg.StoreLocation)
	require.NoError(t, err)
	c, err := catalog.New(context.Background(), cfg, store)
	require.NoError(t, err)

	reg, err := catalog.NewRegistry(nil, c)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	return &fixture{
		srv:  httpadapter.NewServer(":0", reg, slog.Default()),
		reg:  reg,
		dir:  dir,
		root: root,
	}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthzReturns200(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.NotEmpty(t, body["error"])

	f.reg.TriggerAll(context.Background())

	rec = f.do(http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIngestEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/v1/catalogs/ghrsst/ingest")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[domain.ScanReport](t, rec)
	assert.Equal(t, "ghrsst", report.Provider)
	assert.Equal(t, 3, report.Inserted)
	assert.NotEmpty(t, report.ScanID)

	rec = f.do(http.MethodPost, "/v1/catalogs/ghrsst/ingest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[domain.ScanReport](t, rec).Skipped)

	rec = f.do(http.MethodPost, "/v1/catalogs/goes/ingest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCatalogs(t *testing.T) {
	f := newFixture(t)
	f.reg.TriggerAll(context.Background())

	rec := f.do(http.MethodGet, "/v1/catalogs")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []struct {
		Provider   string             `json:"provider"`
		Files      int                `json:"files"`
		LastIngest *domain.ScanReport `json:"last_ingest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "ghrsst", got[0].Provider)
	assert.Equal(t, 3, got[0].Files)
	require.NotNil(t, got[0].LastIngest)
	assert.Equal(t, 3, got[0].LastIngest.Inserted)
}

func TestJobsEndpoints(t *testing.T) {
	f := newFixture(t)
	sched, err := scheduler.New("0 0 1 1 *", f.reg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, sched.AddProvider(domain.ProviderGHRSST))
	sched.Start()
	t.Cleanup(func() { _ = sched.Stop() })
	srv := httpadapter.NewServer(":0", f.reg, slog.Default(), httpadapter.WithJobs(sched))

	do := func(method, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
		return rec
	}

	t.Run("list", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/jobs")
		require.Equal(t, http.StatusOK, rec.Code)
		jobs := decode[[]scheduler.JobInfo](t, rec)
		require.Len(t, jobs, 1)
		assert.Equal(t, "ghrsst", jobs[0].Provider)
		assert.Equal(t, "ingest:ghrsst", jobs[0].Name)
		assert.Equal(t, "0 0 1 1 *", jobs[0].Schedule)
	})

	t.Run("run ingests the catalog", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/jobs/ghrsst/run")
		require.Equal(t, http.StatusAccepted, rec.Code)

		c, err := f.reg.Get("ghrsst")
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			n, err := c.Count(context.Background())
			return err == nil && n == 3
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/jobs/goes/run")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
	})
}

func TestJobsEndpointsAbsentWithoutScheduler(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/jobs").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/v1/jobs/ghrsst/run").Code)
}

type filesBody struct {
	Provider     string   `json:"provider"`
	CheckReceipt string   `json:"check_receipt"`
	Files        []string `json:"files"`
}

func TestFilesEndpoint(t *testing.T) {
	f := newFixture(t)
	f.reg.TriggerAll(context.Background())

	t.Run("begin and end", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/catalogs/ghrsst/files?begin=2025-03-16T09:00:00Z&end=2025-03-16T13:00:00Z&instrument=AVHRRF&satellite=MB&obs_type=SSTsubskin")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[filesBody](t, rec)
		assert.Equal(t, "ghrsst", body.Provider)
		assert.Equal(t, "none", body.CheckReceipt)
		assert.Equal(t, []string{filepath.Join(f.dir, sst10), filepath.Join(f.dir, sst12)}, body.Files)
	})

	t.Run("cycle window", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/catalogs/ghrsst/files?cycle=2025031612&window_hours=3")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[filesBody](t, rec).Files, 3)
	})

	t.Run("filter mismatch returns empty list", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/catalogs/ghrsst/files?cycle=2025031612&satellite=NPP")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"files":[]`)
	})

	t.Run("receipt mode is normalized", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/catalogs/ghrsst/files?cycle=2025031612&check_receipt=GFS")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "gfs", decode[filesBody](t, rec).CheckReceipt)
	})

	for name, target := range map[string]string{
		"missing end":      "/v1/catalogs/ghrsst/files?begin=2025-03-16T09:00:00Z",
		"bad begin":        "/v1/catalogs/ghrsst/files?begin=yesterday&end=2025-03-16T13:00:00Z",
		"bad cycle":        "/v1/catalogs/ghrsst/files?cycle=20250316",
		"cycle with begin": "/v1/catalogs/ghrsst/files?cycle=2025031612&begin=2025-03-16T09:00:00Z",
		"bad window":       "/v1/catalogs/ghrsst/files?cycle=2025031612&window_hours=-1",
		"NaN window":       "/v1/catalogs/ghrsst/files?cycle=2025031612&window_hours=NaN",
		"infinite window":  "/v1/catalogs/ghrsst/files?cycle=2025031612&window_hours=Inf",
		"huge window":      "/v1/catalogs/ghrsst/files?cycle=2025031612&window_hours=1e300",
		"bad receipt mode": "/v1/catalogs/ghrsst/files?cycle=2025031612&check_receipt=ecmwf",
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/catalogs/goes/files?cycle=2025031612")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
