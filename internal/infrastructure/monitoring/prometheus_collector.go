package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exposes the daemon's operational metrics: how long
// lifecycle transitions take to converge, how the warm pool is sized and how
// often acquires hit each outcome.
type PrometheusCollector struct {
	convergenceDuration *prometheus.HistogramVec
	transitionsTotal    *prometheus.CounterVec

	poolSize      prometheus.Gauge
	poolUsedCount prometheus.Gauge
	acquiresTotal *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		convergenceDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "streampool_convergence_duration_seconds",
			Help: "Time for a stream to reach its target state after a transition request",
			// Poll interval is 2s, so convergence clusters on multiples of it
			Buckets: []float64{2, 4, 8, 16, 32, 64, 120},
		}, []string{"verb", "outcome"}),

		transitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streampool_lifecycle_transitions_total",
			Help: "Lifecycle transition attempts by verb and outcome",
		}, []string{"verb", "outcome"}),

		poolSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streampool_pool_size",
			Help: "Number of streams known to the account at the last acquire",
		}),

		poolUsedCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streampool_pool_used_count",
			Help: "Number of busy streams seen during the last acquire walk",
		}),

		acquiresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streampool_pool_acquires_total",
			Help: "Pool acquire attempts by outcome",
		}, []string{"outcome"}),

		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streampool_http_requests_total",
			Help: "Daemon HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "streampool_http_request_duration_seconds",
			Help:    "Daemon HTTP request latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "route"}),
	}
}

// ObserveConvergence implements services.LifecycleMetrics.
func (p *PrometheusCollector) ObserveConvergence(verb, outcome string, elapsed time.Duration) {
	p.transitionsTotal.WithLabelValues(verb, outcome).Inc()
	p.convergenceDuration.WithLabelValues(verb, outcome).Observe(elapsed.Seconds())
}

// ObservePool implements services.PoolMetrics.
func (p *PrometheusCollector) ObservePool(poolSize, usedCount int) {
	p.poolSize.Set(float64(poolSize))
	p.poolUsedCount.Set(float64(usedCount))
}

// CountAcquire implements services.PoolMetrics.
func (p *PrometheusCollector) CountAcquire(outcome string) {
	p.acquiresTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records one served daemon request.
func (p *PrometheusCollector) ObserveHTTPRequest(method, route string, status string, elapsed time.Duration) {
	p.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	p.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
