package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RestAPI = RestAPIExporter{
	total: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "How many HTTP requests were handled, partitioned by method, route pattern and status.",
		},
		[]string{"method", "path", "status"},
	),
	duration: promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "How long it took to handle the request.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	),
	inFlight: promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "http",
			Name:      "requests_in_flight",
			Help:      "Number of requests being handled at the moment.",
		},
	),
}

type RestAPIExporter struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// Started must be paired with NewRequest when the request is handled.
func (r *RestAPIExporter) Started() {
	r.inFlight.Inc()
}

func (r *RestAPIExporter) NewRequest(method string, path string, status string, duration time.Duration) {
	r.inFlight.Dec()

	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": status,
	}

	r.total.With(labels).Inc()
	r.duration.With(labels).Observe(duration.Seconds())
}
