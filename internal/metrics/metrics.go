// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerDomainsTotal         *prometheus.CounterVec
	crawlerBytesTotal           prometheus.Counter
	crawlerFetchDurationSeconds prometheus.Histogram
	crawlerRetriesTotal         *prometheus.CounterVec
	crawlerRobotsDecisionsTotal *prometheus.CounterVec
	crawlerActiveFetches        prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerDomainsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_domains_total",
				Help: "Total number of domains processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlerBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total number of page bytes fetched.",
			},
		)

		crawlerFetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Histogram of per-domain fetch latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		crawlerRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_retries_total",
				Help: "Total retry attempts, labeled by error kind.",
			},
			[]string{"kind"},
		)

		crawlerRobotsDecisionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_robots_decisions_total",
				Help: "Total robots.txt decisions, labeled by result.",
			},
			[]string{"result"},
		)

		crawlerActiveFetches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_active_fetches",
				Help: "Number of fetch pipelines currently in flight.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDomain records a finished domain with its outcome label
// ("success", "blocked", "dns_error", "exhausted").
func ObserveDomain(outcome string, bytesFetched int, duration time.Duration) {
	Init()
	crawlerDomainsTotal.WithLabelValues(outcome).Inc()
	if bytesFetched > 0 {
		crawlerBytesTotal.Add(float64(bytesFetched))
	}
	crawlerFetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveRetry counts a retry attempt for the given error kind.
func ObserveRetry(kind string) {
	Init()
	crawlerRetriesTotal.WithLabelValues(kind).Inc()
}

// ObserveRobotsDecision counts a robots.txt decision result
// ("allowed", "blocked", "fetch_error").
func ObserveRobotsDecision(result string) {
	Init()
	crawlerRobotsDecisionsTotal.WithLabelValues(result).Inc()
}

// IncActiveFetches increments the in-flight fetch gauge.
func IncActiveFetches() {
	Init()
	crawlerActiveFetches.Inc()
}

// DecActiveFetches decrements the in-flight fetch gauge.
func DecActiveFetches() {
	Init()
	crawlerActiveFetches.Dec()
}
