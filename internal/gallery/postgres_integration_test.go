//go:build integration

package gallery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

func setupIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "facegate_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/facegate_test?sslmode=disable", host, port.Port())

	_, err = database.MigrateUp(dsn)
	require.NoError(t, err)

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewPostgresStore(pool)
}

// axis returns a 128-d embedding that is zero except for value at index i.
func axis(i int, value float64) domain.Embedding {
	emb := make(domain.Embedding, 128)
	emb[i] = value
	return emb
}

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store := setupIntegrationStore(t)
	ctx := context.Background()

	for _, s := range []domain.Sample{
		{Label: "alice", Embedding: axis(0, 0.1)},
		{Label: "alice", Embedding: axis(0, 0.2)},
		{Label: "bob", Embedding: axis(1, 0.9)},
	} {
		s := s
		require.NoError(t, store.Add(ctx, &s))
		assert.False(t, s.CreatedAt.IsZero())
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	neighbors, err := store.Nearest(ctx, axis(0, 0.12), 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "alice", neighbors[0].Label)
	assert.InDelta(t, 0.02, neighbors[0].Distance, 1e-6)
	assert.Equal(t, "alice", neighbors[1].Label)

	labels, err := store.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.IdentitySummary{{Label: "alice", Samples: 2}, {Label: "bob", Samples: 1}}, labels)

	removed, err := store.DeleteLabel(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.DeleteLabel(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)

	assert.NoError(t, store.Ping(ctx))
}
