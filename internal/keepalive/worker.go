// Package keepalive periodically requests a public URL so that hosting
// platforms which idle inactive services keep this one awake.
package keepalive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultTimeout  = 30 * time.Second

	// maxBodyLog caps how much of the response body is logged.
	maxBodyLog = 256
)

// Worker pings URL on a fixed interval.
type Worker struct {
	url      string
	client   *http.Client
	logger   *slog.Logger
	interval time.Duration
}

// NewWorker creates a keep-alive worker. An empty url is allowed; every tick
// then only logs a warning.
func NewWorker(url string, logger *slog.Logger, interval, timeout time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Worker{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		interval: interval,
	}
}

// Run pings once right away and then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("keep-alive worker started", "interval", w.interval, "url", w.url)
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("keep-alive worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if w.url == "" {
		metrics.KeepAlivePings.WithLabelValues("skipped").Inc()
		w.logger.Warn("missing keep-alive url")
		return
	}

	status, body, err := w.ping(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.KeepAlivePings.WithLabelValues("error").Inc()
		w.logger.Error("keep-alive request failed", "url", w.url, "error", err)
		return
	}

	metrics.KeepAlivePings.WithLabelValues("ok").Inc()
	w.logger.Info("keep-alive request sent", "url", w.url, "status", status, "body", body)
}

func (w *Worker) ping(ctx context.Context) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	head, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, string(head), nil
}
