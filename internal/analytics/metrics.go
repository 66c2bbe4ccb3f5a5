package analytics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter   *prometheus.CounterVec
	cacheMissCounter  *prometheus.CounterVec
	buildHistogram    *prometheus.HistogramVec
	snapshotLoadGauge prometheus.Gauge
	snapshotFailures  prometheus.Counter
	cacheMetricsError error
)

// SetupCacheMetrics registers the Prometheus collectors for summary caching
// and snapshot loads. Registration happens once; later calls return the first result.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "estatedesk_dashboard_cache_hits_total",
		Help: "Number of cache hits for dashboard reports.",
	}, []string{"report"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "estatedesk_dashboard_cache_miss_total",
		Help: "Number of cache misses for dashboard reports.",
	}, []string{"report"})
	buildHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "estatedesk_dashboard_build_duration_seconds",
		Help:    "Duration required to serve dashboard reports including cache lookups.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
	snapshotLoadGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "estatedesk_snapshot_loaded_timestamp_seconds",
		Help: "Unix time of the last successful snapshot load.",
	})
	snapshotFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estatedesk_snapshot_load_failures_total",
		Help: "Number of failed snapshot loads.",
	})

	collectors := []prometheus.Collector{cacheHitCounter, cacheMissCounter, buildHistogram, snapshotLoadGauge, snapshotFailures}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					buildHistogram = c
				case prometheus.Gauge:
					snapshotLoadGauge = c
				case prometheus.Counter:
					snapshotFailures = c
				default:
					cacheMetricsError = fmt.Errorf("dashboard cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			buildHistogram = nil
			snapshotLoadGauge = nil
			snapshotFailures = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(report string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(report).Inc()
}

func recordCacheMiss(report string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(report).Inc()
}

func observeBuildDuration(report string, duration time.Duration) {
	if buildHistogram == nil {
		return
	}
	buildHistogram.WithLabelValues(report).Observe(duration.Seconds())
}

func recordSnapshotLoad(at time.Time) {
	if snapshotLoadGauge == nil {
		return
	}
	snapshotLoadGauge.Set(float64(at.Unix()))
}

func recordSnapshotFailure() {
	if snapshotFailures == nil {
		return
	}
	snapshotFailures.Inc()
}
