package gallery

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

func seed(t *testing.T, s Store, samples ...domain.Sample) {
	t.Helper()
	for i := range samples {
		require.NoError(t, s.Add(context.Background(), &samples[i]))
	}
}

func TestMemoryStore_AddAssignsIdentity(t *testing.T) {
	store := NewMemoryStore()
	s := &domain.Sample{Label: "alice", Embedding: domain.Embedding{1, 2}}

	require.NoError(t, store.Add(context.Background(), s))

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestMemoryStore_AddCopiesEmbedding(t *testing.T) {
	store := NewMemoryStore()
	emb := domain.Embedding{0, 0}
	require.NoError(t, store.Add(context.Background(), &domain.Sample{Label: "alice", Embedding: emb}))

	emb[0] = 100

	got, err := store.Nearest(context.Background(), domain.Embedding{0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0].Distance)
}

func TestMemoryStore_AddRejectsEmptyEmbedding(t *testing.T) {
	err := NewMemoryStore().Add(context.Background(), &domain.Sample{Label: "alice"})
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestMemoryStore_Nearest(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store,
		domain.Sample{Label: "far", Embedding: domain.Embedding{3, 4}},
		domain.Sample{Label: "near", Embedding: domain.Embedding{0, 1}},
		domain.Sample{Label: "mid", Embedding: domain.Embedding{0, 2}},
	)

	tests := []struct {
		name   string
		k      int
		labels []string
	}{
		{name: "top one", k: 1, labels: []string{"near"}},
		{name: "top two in order", k: 2, labels: []string{"near", "mid"}},
		{name: "k beyond size", k: 10, labels: []string{"near", "mid", "far"}},
		{name: "zero k", k: 0, labels: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Nearest(context.Background(), domain.Embedding{0, 0}, tt.k)
			require.NoError(t, err)

			labels := make([]string, 0, len(got))
			for _, n := range got {
				labels = append(labels, n.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestMemoryStore_NearestDimensionMismatch(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, domain.Sample{Label: "alice", Embedding: domain.Embedding{1, 2, 3}})

	_, err := store.Nearest(context.Background(), domain.Embedding{1, 2}, 1)
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestMemoryStore_LabelsAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store,
		domain.Sample{Label: "bob", Embedding: domain.Embedding{1}},
		domain.Sample{Label: "alice", Embedding: domain.Embedding{2}},
		domain.Sample{Label: "bob", Embedding: domain.Embedding{3}},
	)

	labels, err := store.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.IdentitySummary{
		{Label: "alice", Samples: 1},
		{Label: "bob", Samples: 2},
	}, labels)

	removed, err := store.DeleteLabel(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.DeleteLabel(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Add(ctx, &domain.Sample{Label: "x", Embedding: domain.Embedding{float64(i)}})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Nearest(ctx, domain.Embedding{0}, 3)
		}()
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.NoError(t, store.Ping(ctx))
}
