package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func NewPoolStatusExporter(poolName string) *PoolStatusExporter {
	poolLabels := prometheus.Labels{
		"pool": poolName,
	}

	return &PoolStatusExporter{
		conns: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   "db_pool",
				Name:        "connections",
				Help:        "Number of pool connections, partitioned by state (acquired, idle, total, max).",
				ConstLabels: poolLabels,
			},
			[]string{"state"},
		),
		acquires: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   "db_pool",
				Name:        "acquires",
				Help:        "Cumulative number of connection acquires, partitioned by kind (all, empty, canceled).",
				ConstLabels: poolLabels,
			},
			[]string{"kind"},
		),
		acquireDuration: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "db_pool",
				Name:        "acquire_duration_seconds",
				Help:        "Cumulative time spent waiting for a connection.",
				ConstLabels: poolLabels,
			},
		),
	}
}

type PoolStatusExporter struct {
	conns           *prometheus.GaugeVec
	acquires        *prometheus.GaugeVec
	acquireDuration prometheus.Gauge
}

// PoolStat is a snapshot of pool statistics.
type PoolStat struct {
	AcquiredConns int32
	IdleConns     int32
	TotalConns    int32
	MaxConns      int32

	AcquireCount         int64
	EmptyAcquireCount    int64
	CanceledAcquireCount int64
	AcquireDuration      time.Duration
}

func (p *PoolStatusExporter) Update(s PoolStat) {
	p.conns.With(prometheus.Labels{"state": "acquired"}).Set(float64(s.AcquiredConns))
	p.conns.With(prometheus.Labels{"state": "idle"}).Set(float64(s.IdleConns))
	p.conns.With(prometheus.Labels{"state": "total"}).Set(float64(s.TotalConns))
	p.conns.With(prometheus.Labels{"state": "max"}).Set(float64(s.MaxConns))

	p.acquires.With(prometheus.Labels{"kind": "all"}).Set(float64(s.AcquireCount))
	p.acquires.With(prometheus.Labels{"kind": "empty"}).Set(float64(s.EmptyAcquireCount))
	p.acquires.With(prometheus.Labels{"kind": "canceled"}).Set(float64(s.CanceledAcquireCount))

	p.acquireDuration.Set(s.AcquireDuration.Seconds())
}
