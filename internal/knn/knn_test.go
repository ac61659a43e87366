package knn

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// fakeSource returns its neighbors sorted by distance, truncated to k.
type fakeSource struct {
	neighbors []domain.Neighbor
	err       error
	lastK     int
}

func (f *fakeSource) Nearest(_ context.Context, _ domain.Embedding, k int) ([]domain.Neighbor, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	out := append([]domain.Neighbor(nil), f.neighbors...)
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeSource) Count(context.Context) (int, error) {
	return len(f.neighbors), nil
}

func TestAutoNeighbors(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{9, 3},
		{12, 3},
		{13, 4},
		{100, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AutoNeighbors(tt.n), "n=%d", tt.n)
	}
}

func TestVote(t *testing.T) {
	tests := []struct {
		name        string
		neighbors   []domain.Neighbor
		wantLabel   string
		wantClosest float64
	}{
		{
			name: "majority by weight",
			neighbors: []domain.Neighbor{
				{Label: "alice", Distance: 0.3},
				{Label: "bob", Distance: 0.35},
				{Label: "alice", Distance: 0.4},
			},
			wantLabel:   "alice",
			wantClosest: 0.3,
		},
		{
			name: "one very close sample outweighs two far ones",
			neighbors: []domain.Neighbor{
				{Label: "bob", Distance: 0.1},
				{Label: "alice", Distance: 0.5},
				{Label: "alice", Distance: 0.5},
			},
			wantLabel:   "bob",
			wantClosest: 0.1,
		},
		{
			name: "exact match wins outright",
			neighbors: []domain.Neighbor{
				{Label: "alice", Distance: 0.2},
				{Label: "alice", Distance: 0.2},
				{Label: "carol", Distance: 0},
			},
			wantLabel:   "carol",
			wantClosest: 0,
		},
		{
			name: "equal weight breaks on label order",
			neighbors: []domain.Neighbor{
				{Label: "zed", Distance: 0.25},
				{Label: "amy", Distance: 0.25},
			},
			wantLabel:   "amy",
			wantClosest: 0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, closest := Vote(tt.neighbors)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantClosest, closest)
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	src := &fakeSource{neighbors: []domain.Neighbor{
		{Label: "alice", Distance: 0.2},
		{Label: "alice", Distance: 0.3},
		{Label: "bob", Distance: 0.45},
		{Label: "bob", Distance: 0.9},
		{Label: "bob", Distance: 1.0},
	}}
	c := New(src, 0, 0)

	pred, err := c.Classify(context.Background(), domain.Embedding{0})
	require.NoError(t, err)

	assert.Equal(t, 2, src.lastK, "round(sqrt(5)) neighbors")
	assert.Equal(t, "alice", pred.Label)
	assert.True(t, pred.Recognized)
	assert.Equal(t, 0.2, pred.Distance)
}

func TestClassifier_BeyondThreshold(t *testing.T) {
	src := &fakeSource{neighbors: []domain.Neighbor{
		{Label: "alice", Distance: 0.7},
		{Label: "bob", Distance: 0.8},
	}}
	c := New(src, 1, DefaultThreshold)

	pred, err := c.Classify(context.Background(), domain.Embedding{0})
	require.NoError(t, err)

	assert.Equal(t, domain.UnknownLabel, pred.Label)
	assert.False(t, pred.Recognized)
	assert.Equal(t, 0.7, pred.Distance)
}

func TestClassifier_NeighborsCappedBySamples(t *testing.T) {
	src := &fakeSource{neighbors: []domain.Neighbor{{Label: "alice", Distance: 0.1}}}
	c := New(src, 7, 0)

	_, err := c.Classify(context.Background(), domain.Embedding{0})
	require.NoError(t, err)
	assert.Equal(t, 1, src.lastK)
}

func TestClassifier_EmptyGallery(t *testing.T) {
	c := New(&fakeSource{}, 0, 0)

	_, err := c.Classify(context.Background(), domain.Embedding{0})
	assert.ErrorIs(t, err, domain.ErrGalleryEmpty)
}

func TestClassifier_SourceError(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{neighbors: []domain.Neighbor{{Label: "a", Distance: 1}}, err: boom}

	_, err := New(src, 0, 0).Classify(context.Background(), domain.Embedding{0})
	assert.ErrorIs(t, err, boom)
}
