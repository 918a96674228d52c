// Package metrics exports rewrite events as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

const namespace = "narrator"

// Ensure Observer implements the interface.
var _ driven.RewriteObserver = (*Observer)(nil)

// Observer records rewrite events in its own Prometheus registry.
type Observer struct {
	registry *prometheus.Registry

	remoteCalls    *prometheus.CounterVec
	fallbackChunks prometheus.Counter
	chunks         *prometheus.CounterVec
	rateWaits      prometheus.Counter
	rateWaitTime   prometheus.Histogram
	cacheHits      prometheus.Counter
	degraded       *prometheus.CounterVec
}

// NewObserver creates an observer with a fresh registry.
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Total remote rewrite attempts, failed ones included",
			},
			[]string{"model", "status"}, // status: success, quota, transient, extraction
		),
		fallbackChunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_chunks_total",
				Help:      "Total chunks rewritten by the local fallback",
			},
		),
		chunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_total",
				Help:      "Total chunks rewritten, by source",
			},
			[]string{"source"},
		),
		rateWaits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_waits_total",
				Help:      "Total times the per-minute rate gate blocked",
			},
		),
		rateWaitTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rate_wait_seconds",
				Help:      "Time spent waiting for the per-minute rate gate",
				Buckets:   []float64{1, 5, 15, 30, 45, 60, 90},
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total chunks served from the rewrite cache",
			},
		),
		degraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_runs_total",
				Help:      "Total runs that switched to the local fallback, by reason",
			},
			[]string{"reason"},
		),
	}

	o.registry.MustRegister(
		o.remoteCalls,
		o.fallbackChunks,
		o.chunks,
		o.rateWaits,
		o.rateWaitTime,
		o.cacheHits,
		o.degraded,
	)
	return o
}

// RemoteCall records one remote attempt.
func (o *Observer) RemoteCall(model string, err error) {
	o.remoteCalls.WithLabelValues(model, callStatus(err)).Inc()
}

// ChunkDone records where a chunk's text came from.
func (o *Observer) ChunkDone(src domain.ChunkSource) {
	o.chunks.WithLabelValues(src.String()).Inc()
	switch src {
	case domain.SourceFallback:
		o.fallbackChunks.Inc()
	case domain.SourceCache:
		o.cacheHits.Inc()
	}
}

// RateWait records a rate gate wait.
func (o *Observer) RateWait(d time.Duration) {
	o.rateWaits.Inc()
	o.rateWaitTime.Observe(d.Seconds())
}

// Degraded records a switch to the local fallback.
func (o *Observer) Degraded(kind domain.ErrorKind) {
	o.degraded.WithLabelValues(kind.String()).Inc()
}

// Registry returns the registry holding the narrator metrics.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// WriteFile writes the metrics in text format for a node exporter textfile collector.
func (o *Observer) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, o.registry)
}

func callStatus(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, domain.ErrConfiguration) {
		return "configuration"
	}
	return domain.KindOf(err).String()
}
