// Package store opens the catalog store selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/obs-catalog-service/internal/adapter/postgres"
	"github.com/couchcryptid/obs-catalog-service/internal/adapter/sqlite"
	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/config"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// Open returns the store for one provider. With the sqlite backend the
// catalog's StoreLocation is the database file; with postgres it is ignored
// and the provider's table in DATABASE_URL is used.
func Open(ctx context.Context, cfg *config.Config, cc domain.CatalogConfig) (catalog.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return sqlite.Open(cc.StoreLocation)
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL, cc.Provider)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// OpenAll opens a store for every configured provider. On failure the stores
// already opened are closed.
func OpenAll(ctx context.Context, cfg *config.Config) ([]domain.CatalogConfig, []catalog.Store, error) {
	ccs, err := cfg.CatalogConfigs()
	if err != nil {
		return nil, nil, err
	}
	stores := make([]catalog.Store, 0, len(ccs))
	for _, cc := range ccs {
		s, err := Open(ctx, cfg, cc)
		if err != nil {
			for _, opened := range stores {
				_ = opened.Close()
			}
			return nil, nil, fmt.Errorf("open store for %s: %w", cc.Provider, err)
		}
		stores = append(stores, s)
	}
	return ccs, stores, nil
}
