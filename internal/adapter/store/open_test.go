package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/obs-catalog-service/internal/adapter/sqlite"
	"github.com/couchcryptid/obs-catalog-service/internal/config"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

func TestOpenAll_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DCOMRoot:     "/dcom",
		CatalogDir:   dir,
		StoreBackend: config.BackendSQLite,
		Providers:    []config.ProviderConfig{{Name: domain.ProviderRADS}, {Name: domain.ProviderSMAP}},
	}

	ccs, stores, err := OpenAll(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})

	assert.Equal(t, domain.ProviderRADS, ccs[0].Provider)
	s, ok := stores[0].(*sqlite.Store)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "rads.db"), s.Path())
	assert.NoError(t, stores[1].Ping(context.Background()))
}

func TestOpen_UnknownBackend(t *testing.T) {
	cc, err := domain.NewCatalogConfig(domain.ProviderRADS, "/dcom", nil, "")
	require.NoError(t, err)
	_, err = Open(context.Background(), &config.Config{StoreBackend: "mysql"}, cc)
	assert.Error(t, err)
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	cc, err := domain.NewCatalogConfig(domain.ProviderRADS, "/dcom", nil, "")
	require.NoError(t, err)
	cfg := &config.Config{StoreBackend: config.BackendPostgres, DatabaseURL: "::not a url::"}
	_, err = Open(context.Background(), cfg, cc)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
