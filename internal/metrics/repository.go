package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var defaultRepositoryBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

func NewRepositoryExporter(backend string) *RepositoryExporter {
	return &RepositoryExporter{
		duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   "repository",
				Name:        "operation_duration_seconds",
				Help:        "How long it took to process an article repository operation, partitioned by operation and status (success, not_found or failure).",
				ConstLabels: prometheus.Labels{"backend": backend},
				Buckets:     defaultRepositoryBuckets,
			},
			[]string{"operation", "status"},
		),
	}
}

type RepositoryExporter struct {
	duration *prometheus.HistogramVec
}

// Status is the outcome label of a repository operation.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusNotFound Status = "not_found"
	StatusFailure  Status = "failure"
)

func (r *RepositoryExporter) observe(operation string, status Status, startedAt time.Time) {
	r.duration.
		With(prometheus.Labels{
			"operation": operation,
			"status":    string(status),
		}).
		Observe(time.Since(startedAt).Seconds())
}

func (r *RepositoryExporter) Create(status Status, startedAt time.Time) {
	r.observe("create", status, startedAt)
}

func (r *RepositoryExporter) Get(status Status, startedAt time.Time) {
	r.observe("get", status, startedAt)
}

func (r *RepositoryExporter) List(status Status, startedAt time.Time) {
	r.observe("list", status, startedAt)
}

func (r *RepositoryExporter) Update(status Status, startedAt time.Time) {
	r.observe("update", status, startedAt)
}

func (r *RepositoryExporter) Delete(status Status, startedAt time.Time) {
	r.observe("delete", status, startedAt)
}
