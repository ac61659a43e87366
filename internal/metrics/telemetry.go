// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Throughput
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegate_http_requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"method", "route", "status"})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegate_verifications_total",
		Help: "Verify outcomes (same or different)",
	}, []string{"result"})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facegate_faces_detected_total",
		Help: "Faces returned by the face provider",
	})

	KeepAlivePings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegate_keepalive_pings_total",
		Help: "Keep-alive attempts by result (ok, error, skipped)",
	}, []string{"result"})

	// Latency
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "facegate_http_request_duration_seconds",
		Help:    "Time taken to serve HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "facegate_provider_duration_seconds",
		Help:    "Time spent in face detection and encoding",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}, // CNN detection is slow
	}, []string{"provider", "outcome"})

	// State
	GallerySamples = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "facegate_gallery_samples",
		Help: "Samples currently enrolled in the gallery",
	})

	GalleryIdentities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "facegate_gallery_identities",
		Help: "Distinct labels currently enrolled in the gallery",
	})
)
