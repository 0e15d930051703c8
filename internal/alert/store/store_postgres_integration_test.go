//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smartourism/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	runStoreContract(t, func(t *testing.T) alertStore {
		require.NoError(t, pg.TruncateTables(context.Background(), "alert_responses", "alerts"))
		return NewPostgres(pg.DB)
	})
}
