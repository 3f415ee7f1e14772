package observability

import (
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Export outcomes recorded by IncrExport.
const (
	ExportOK      = "ok"
	ExportEmpty   = "empty"
	ExportFailed  = "error"
	snapshotCache = "snapshot"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	exports         *prometheus.CounterVec
	retries         *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "denuncias_request_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "denuncias_external_errors_total",
				Help: "Failed calls to external services, after retries.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "denuncias_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "denuncias_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "denuncias_exports_total",
				Help: "Report exports by format and result.",
			},
			[]string{"format", "result"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "denuncias_retries_total",
				Help: "Retried calls to external services.",
			},
			[]string{"service"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrExport counts one export attempt.
func (m *Metrics) IncrExport(format domain.ExportFormat, result string) {
	m.exports.WithLabelValues(string(format), result).Inc()
}

// IncrRetry counts one retry against service.
func (m *Metrics) IncrRetry(service string) {
	m.retries.WithLabelValues(service).Inc()
}

// Summary returns a JSON-friendly snapshot for GET /v1/metrics/summary.
// Prometheus counters are cumulative, so the period is always all_time.
func (m *Metrics) Summary() *domain.MetricsSummary {
	hits := sumCounter(m.cacheHits)
	misses := sumCounter(m.cacheMisses)

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	byFormat := map[string]float64{}
	var empty float64
	for _, metric := range collect(m.exports) {
		labels := map[string]string{}
		for _, lp := range metric.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		v := metric.GetCounter().GetValue()
		if labels["result"] == ExportEmpty {
			empty += v
			continue
		}
		if labels["result"] == ExportOK {
			byFormat[labels["format"]] += v
		}
	}

	return &domain.MetricsSummary{
		ExternalErrors:  sumCounter(m.externalErrors),
		Retries:         sumCounter(m.retries),
		CacheHitRate:    hitRate,
		ExportsByFormat: byFormat,
		ExportsEmpty:    empty,
		Period:          "all_time",
	}
}

// collect reads every child of a CounterVec through the client_model types.
func collect(cv *prometheus.CounterVec) []*dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var out []*dto.Metric
	for pm := range ch {
		m := &dto.Metric{}
		if err := pm.Write(m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func sumCounter(cv *prometheus.CounterVec) float64 {
	var total float64
	for _, m := range collect(cv) {
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
