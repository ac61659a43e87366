// Package matcher decides whether two face embeddings belong to the same person.
package matcher

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// DefaultThreshold is the Euclidean distance at or below which two dlib
// embeddings are considered the same identity. Lower is stricter.
const DefaultThreshold = 0.6

// Distance returns the Euclidean distance between a and b.
func Distance(a, b domain.Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, domain.ErrFormat.WithError(fmt.Errorf("empty embedding"))
	}
	if len(a) != len(b) {
		return 0, domain.ErrFormat.WithError(
			fmt.Errorf("embedding length mismatch: %d vs %d", len(a), len(b)))
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// IsMatch reports whether candidate is within threshold of reference.
func IsMatch(reference, candidate domain.Embedding, threshold float64) (bool, error) {
	d, err := Distance(reference, candidate)
	if err != nil {
		return false, err
	}
	return d <= threshold, nil
}

// Matcher compares embeddings against a fixed threshold.
type Matcher struct {
	Threshold float64
}

// New returns a Matcher; a non-positive threshold falls back to DefaultThreshold.
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// Compare returns the full match outcome for reference and candidate.
func (m *Matcher) Compare(reference, candidate domain.Embedding) (domain.MatchResult, error) {
	d, err := Distance(reference, candidate)
	if err != nil {
		return domain.MatchResult{}, err
	}
	return domain.MatchResult{
		Same:      d <= m.Threshold,
		Distance:  d,
		Threshold: m.Threshold,
	}, nil
}
