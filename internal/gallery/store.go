// Package gallery stores labelled face embeddings and answers
// nearest-neighbour queries over them.
package gallery

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Store is a gallery of enrolled samples.
type Store interface {
	// Add persists s, assigning ID and CreatedAt when they are zero.
	Add(ctx context.Context, s *domain.Sample) error
	// Nearest returns up to k samples closest to emb, closest first.
	Nearest(ctx context.Context, emb domain.Embedding, k int) ([]domain.Neighbor, error)
	Count(ctx context.Context) (int, error)
	// Labels summarizes the gallery per label, in label order.
	Labels(ctx context.Context) ([]domain.IdentitySummary, error)
	// DeleteLabel removes every sample of label and reports how many went.
	// domain.ErrIdentityNotFound when there were none.
	DeleteLabel(ctx context.Context, label string) (int, error)
	Ping(ctx context.Context) error
}
