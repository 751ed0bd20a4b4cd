package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Reports         *prometheus.CounterVec
	ReportsInFlight prometheus.Gauge
	GeocodeRequests *prometheus.CounterVec
	GeocodeSeconds  *prometheus.HistogramVec
	SourceSeconds   *prometheus.HistogramVec
	SourceFailures  *prometheus.CounterVec
	SourceRecords   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Reports: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "terra_reports_total",
			Help: "Total number of environmental reports requested, by outcome.",
		}, []string{"status"}),
		ReportsInFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "terra_reports_in_flight",
			Help: "Current number of reports being assembled.",
		}),
		GeocodeRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "terra_geocode_requests_total",
			Help: "Total number of geocoding attempts, by outcome.",
		}, []string{"status"}),
		GeocodeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terra_geocode_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		SourceSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terra_source_fetch_duration_seconds",
			Help:    "Duration of fetches from environmental data sources.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"source"}),
		SourceFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "terra_source_failures_total",
			Help: "Total number of environmental source fetches that degraded to an empty result.",
		}, []string{"source"}),
		SourceRecords: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "terra_source_records_total",
			Help: "Total number of raw records returned by environmental sources.",
		}, []string{"source"}),
	}
}
