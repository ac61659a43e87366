package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// GallerySource is the read side of the gallery the aggregator samples.
type GallerySource interface {
	Count(ctx context.Context) (int, error)
	Labels(ctx context.Context) ([]domain.IdentitySummary, error)
}

// Aggregator periodically refreshes the gallery gauges
type Aggregator struct {
	source   GallerySource
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewAggregator creates a new metrics aggregator worker
func NewAggregator(source GallerySource, logger *slog.Logger, interval time.Duration) *Aggregator {
	if interval == 0 {
		interval = 1 * time.Minute
	}

	return &Aggregator{
		source:   source,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the aggregation worker
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("metrics aggregator started", "interval", a.interval)
	a.aggregate(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("metrics aggregator stopped")
			return
		case <-a.done:
			a.logger.Info("metrics aggregator stopped")
			return
		case <-ticker.C:
			a.aggregate(ctx)
		}
	}
}

// Stop gracefully shuts down the aggregator
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

func (a *Aggregator) aggregate(ctx context.Context) {
	n, err := a.source.Count(ctx)
	if err != nil {
		a.logger.Error("failed to count gallery samples", "error", err)
		return
	}
	labels, err := a.source.Labels(ctx)
	if err != nil {
		a.logger.Error("failed to list gallery labels", "error", err)
		return
	}

	GallerySamples.Set(float64(n))
	GalleryIdentities.Set(float64(len(labels)))
	a.logger.Debug("gallery metrics refreshed", "samples", n, "identities", len(labels))
}
