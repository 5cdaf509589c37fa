package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()

	m := new(dto.Metric)
	require.NoError(t, g.Write(m))

	return m.GetGauge().GetValue()
}

func TestPoolStatusExporter_Update(t *testing.T) {
	exp := NewPoolStatusExporter("pool_exporter_test")

	exp.Update(PoolStat{
		AcquiredConns:        2,
		IdleConns:            1,
		TotalConns:           3,
		MaxConns:             8,
		AcquireCount:         40,
		EmptyAcquireCount:    5,
		CanceledAcquireCount: 1,
		AcquireDuration:      1500 * time.Millisecond,
	})

	for state, want := range map[string]float64{"acquired": 2, "idle": 1, "total": 3, "max": 8} {
		assert.Equal(t, want, gaugeValue(t, exp.conns.With(prometheus.Labels{"state": state})), state)
	}
	for kind, want := range map[string]float64{"all": 40, "empty": 5, "canceled": 1} {
		assert.Equal(t, want, gaugeValue(t, exp.acquires.With(prometheus.Labels{"kind": kind})), kind)
	}
	assert.Equal(t, 1.5, gaugeValue(t, exp.acquireDuration))

	exp.Update(PoolStat{MaxConns: 8})
	assert.Zero(t, gaugeValue(t, exp.conns.With(prometheus.Labels{"state": "acquired"})))
}
