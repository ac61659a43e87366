// Package knn labels embeddings by a distance-weighted vote among their
// nearest gallery samples.
package knn

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// DefaultThreshold is the largest distance to the closest sample at which a
// face still counts as recognized.
const DefaultThreshold = 0.5

// Source yields labelled samples ordered by distance to a query embedding.
type Source interface {
	Nearest(ctx context.Context, emb domain.Embedding, k int) ([]domain.Neighbor, error)
	Count(ctx context.Context) (int, error)
}

type Classifier struct {
	Source Source
	// Neighbors is k; zero or negative picks round(sqrt(samples)).
	Neighbors int
	Threshold float64
}

func New(src Source, neighbors int, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{Source: src, Neighbors: neighbors, Threshold: threshold}
}

// AutoNeighbors returns round(sqrt(n)), at least 1.
func AutoNeighbors(n int) int {
	k := int(math.Round(math.Sqrt(float64(n))))
	if k < 1 {
		return 1
	}
	return k
}

// Classify predicts the label of emb. The Box of the result is left empty.
func (c *Classifier) Classify(ctx context.Context, emb domain.Embedding) (domain.Prediction, error) {
	n, err := c.Source.Count(ctx)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("count samples: %w", err)
	}
	if n == 0 {
		return domain.Prediction{}, domain.ErrGalleryEmpty
	}

	k := c.Neighbors
	if k <= 0 {
		k = AutoNeighbors(n)
	}
	if k > n {
		k = n
	}

	neighbors, err := c.Source.Nearest(ctx, emb, k)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("nearest samples: %w", err)
	}
	if len(neighbors) == 0 {
		return domain.Prediction{}, domain.ErrGalleryEmpty
	}

	label, closest := Vote(neighbors)
	pred := domain.Prediction{
		Label:      label,
		Distance:   closest,
		Recognized: closest <= c.Threshold,
	}
	if !pred.Recognized {
		pred.Label = domain.UnknownLabel
	}
	return pred, nil
}

type tally struct {
	weight float64
	sum    float64
}

// Vote returns the winning label among neighbors and the smallest distance
// seen. Each neighbor weighs 1/distance; a zero-distance neighbor wins
// outright. Ties go to the smaller summed distance, then to label order.
func Vote(neighbors []domain.Neighbor) (string, float64) {
	closest := math.Inf(1)
	exact := ""
	hasExact := false
	tallies := make(map[string]*tally, len(neighbors))

	for _, nb := range neighbors {
		if nb.Distance < closest {
			closest = nb.Distance
		}
		if nb.Distance == 0 {
			if !hasExact || nb.Label < exact {
				exact = nb.Label
			}
			hasExact = true
			continue
		}
		t, ok := tallies[nb.Label]
		if !ok {
			t = &tally{}
			tallies[nb.Label] = t
		}
		t.weight += 1 / nb.Distance
		t.sum += nb.Distance
	}

	if hasExact {
		return exact, 0
	}

	labels := make([]string, 0, len(tallies))
	for l := range tallies {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := tallies[labels[i]], tallies[labels[j]]
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		if a.sum != b.sum {
			return a.sum < b.sum
		}
		return labels[i] < labels[j]
	})

	return labels[0], closest
}
