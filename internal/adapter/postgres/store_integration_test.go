//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/catalog/storetest"
)

var tableSeq atomic.Int64

func TestConformance(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	storetest.TestStore(t, func(t *testing.T) catalog.Store {
		ctx := context.Background()
		provider := fmt.Sprintf("conformance_%d_%d", time.Now().UnixNano(), tableSeq.Add(1))

		s, err := Open(ctx, url, provider)
		require.NoError(t, err)
		require.NoError(t, s.EnsureSchema(ctx))
		t.Cleanup(func() {
			_, _ = s.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+s.table)
			s.Close()
		})
		return s
	})
}
