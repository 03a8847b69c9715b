package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	beaconsAcceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_beacons_accepted_total",
			Help: "Total number of beacons persisted",
		},
		[]string{"kind"},
	)

	beaconsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_beacons_rejected_total",
			Help: "Total number of beacons rejected before or during persistence",
		},
		[]string{"reason"},
	)

	reportFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_report_fallbacks_total",
			Help: "Total number of dashboard reports replaced by sample data",
		},
		[]string{"reason"},
	)

	reportCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_report_cache_total",
			Help: "Report cache lookups by result",
		},
		[]string{"result"},
	)

	aggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_aggregation_duration_seconds",
			Help:    "Time spent building an analytics report",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"range"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_exports_total",
			Help: "Total number of exports by format and status",
		},
		[]string{"format", "status"},
	)
)

func RecordBeaconAccepted(kind string) {
	beaconsAcceptedTotal.WithLabelValues(kind).Inc()
}

// RecordBeaconRejected takes one of "auth", "validation", "dependency", "rate_limited".
func RecordBeaconRejected(reason string) {
	beaconsRejectedTotal.WithLabelValues(reason).Inc()
}

func RecordReportFallback(reason string) {
	reportFallbacksTotal.WithLabelValues(reason).Inc()
}

func RecordReportCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	reportCacheTotal.WithLabelValues(result).Inc()
}

func ObserveAggregation(rangeToken string, d time.Duration) {
	aggregationDuration.WithLabelValues(rangeToken).Observe(d.Seconds())
}

func RecordExport(format, status string) {
	exportsTotal.WithLabelValues(format, status).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
