package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects pipeline metrics on its own registry
// ⭐ SSOT: 메트릭 정의는 여기서만
//
// All methods are nil-safe so components can run without metrics.
type Recorder struct {
	registry *prometheus.Registry

	normalized    prometheus.Counter
	dropped       *prometheus.CounterVec
	screenResults prometheus.Gauge
	latency       *prometheus.HistogramVec
	toggles       prometheus.Counter
	upstreamFails *prometheus.CounterVec
}

// New creates a recorder backed by a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		normalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "screener_records_normalized_total",
			Help: "Total number of upstream records normalized into canonical rows",
		}),
		dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_records_dropped_total",
				Help: "Total number of upstream records dropped during normalization",
			},
			[]string{"reason"},
		),
		screenResults: factory.NewGauge(prometheus.GaugeOpts{
			Name: "screener_screen_results",
			Help: "Number of rows returned by the last screening pass",
		}),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		toggles: factory.NewCounter(prometheus.CounterOpts{
			Name: "screener_favorites_toggles_total",
			Help: "Total number of favorite mutations",
		}),
		upstreamFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_upstream_failures_total",
				Help: "Upstream fetches that failed and were skipped",
			},
			[]string{"endpoint"},
		),
	}
}

// Registry exposes the underlying registry (tests, custom exporters)
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordNormalized adds n accepted records
func (r *Recorder) RecordNormalized(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.normalized.Add(float64(n))
}

// RecordDropped adds n dropped records for reason
func (r *Recorder) RecordDropped(reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.dropped.WithLabelValues(reason).Add(float64(n))
}

// RecordScreen stores the result size of a screening pass
func (r *Recorder) RecordScreen(results int, d time.Duration) {
	if r == nil {
		return
	}
	r.screenResults.Set(float64(results))
	r.latency.WithLabelValues("screen").Observe(d.Seconds())
}

// ObserveDuration records an operation latency
func (r *Recorder) ObserveDuration(operation string, d time.Duration) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordFavoriteToggle counts one favorites mutation
func (r *Recorder) RecordFavoriteToggle() {
	if r == nil {
		return
	}
	r.toggles.Inc()
}

// RecordUpstreamFailure counts a skipped upstream fetch
func (r *Recorder) RecordUpstreamFailure(endpoint string) {
	if r == nil {
		return
	}
	r.upstreamFails.WithLabelValues(endpoint).Inc()
}
