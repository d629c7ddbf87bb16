package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sptk-project/sptkdl/internal/catalog"
	"github.com/sptk-project/sptkdl/internal/storage"
)

// DropUnreadableMetadata labels files dropped by the store because their
// metadata could not be read.
const DropUnreadableMetadata = "unreadable_metadata"

// Metrics holds the catalog collectors.
type Metrics struct {
	builds   prometheus.Counter
	duration prometheus.Histogram
	versions prometheus.Gauge
	dropped  *prometheus.CounterVec
}

// NewMetrics registers the catalog collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		builds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sptkdl",
			Name:      "catalog_builds_total",
			Help:      "Number of catalog scans performed.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sptkdl",
			Name:      "catalog_build_duration_seconds",
			Help:      "Time spent scanning the store into a catalog.",
			Buckets:   prometheus.DefBuckets,
		}),
		versions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sptkdl",
			Name:      "catalog_versions",
			Help:      "Number of versions in the last catalog built.",
		}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sptkdl",
			Name:      "catalog_dropped_entries_total",
			Help:      "Store entries left out of the catalog, by reason.",
		}, []string{"reason"}),
	}
}

// ObserveScan records the outcome of one scan.
func (m *Metrics) ObserveScan(stats catalog.Stats, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.builds.Inc()
	m.duration.Observe(elapsed.Seconds())
	m.versions.Set(float64(stats.Versions))
	for reason, n := range stats.Dropped {
		m.dropped.WithLabelValues(reason).Add(float64(n))
	}
}

// DropFunc returns a store hook counting files whose metadata could not be read.
func (m *Metrics) DropFunc() storage.DropFunc {
	return func(_, _ string, _ error) {
		if m == nil {
			return
		}
		m.dropped.WithLabelValues(DropUnreadableMetadata).Inc()
	}
}
