package gallery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
)

// MemoryStore keeps samples in process memory. Lookups are brute force.
type MemoryStore struct {
	mu      sync.RWMutex
	samples []domain.Sample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(_ context.Context, s *domain.Sample) error {
	if len(s.Embedding) == 0 {
		return domain.ErrFormat
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	stored := *s
	stored.Embedding = append(domain.Embedding(nil), s.Embedding...)

	m.mu.Lock()
	m.samples = append(m.samples, stored)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Nearest(ctx context.Context, emb domain.Embedding, k int) ([]domain.Neighbor, error) {
	if k <= 0 {
		return []domain.Neighbor{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Neighbor, 0, len(m.samples))
	for _, s := range m.samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := matcher.Distance(s.Embedding, emb)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Neighbor{Label: s.Label, Distance: d})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func (m *MemoryStore) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.samples), nil
}

func (m *MemoryStore) Labels(context.Context) ([]domain.IdentitySummary, error) {
	m.mu.RLock()
	counts := make(map[string]int)
	for _, s := range m.samples {
		counts[s.Label]++
	}
	m.mu.RUnlock()

	out := make([]domain.IdentitySummary, 0, len(counts))
	for label, n := range counts {
		out = append(out, domain.IdentitySummary{Label: label, Samples: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (m *MemoryStore) DeleteLabel(_ context.Context, label string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.samples[:0]
	removed := 0
	for _, s := range m.samples {
		if s.Label == label {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	// clear the tail so dropped embeddings can be collected
	for i := len(kept); i < len(m.samples); i++ {
		m.samples[i] = domain.Sample{}
	}
	m.samples = kept

	if removed == 0 {
		return 0, domain.ErrIdentityNotFound
	}
	return removed, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
