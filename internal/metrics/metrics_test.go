package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestCollectorObserveCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveCycle(3, 0.8, 2*time.Second)
	c.ObserveCycle(1, 0.9, time.Second)

	cycles := gatherFamily(t, reg, "tokenscout_cycles_total")
	require.NotNil(t, cycles)
	assert.Equal(t, 2.0, cycles.GetMetric()[0].GetCounter().GetValue())

	emitted := gatherFamily(t, reg, "tokenscout_candidates_emitted_total")
	require.NotNil(t, emitted)
	assert.Equal(t, 4.0, emitted.GetMetric()[0].GetCounter().GetValue())

	savings := gatherFamily(t, reg, "tokenscout_expensive_savings_ratio")
	require.NotNil(t, savings)
	assert.Equal(t, 0.9, savings.GetMetric()[0].GetGauge().GetValue())
}

func TestCollectorObserveFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveFetch(2, 5, 10, 3)

	batch := gatherFamily(t, reg, "tokenscout_batch_calls_total")
	require.NotNil(t, batch)
	assert.Equal(t, 2.0, batch.GetMetric()[0].GetCounter().GetValue())

	hits := gatherFamily(t, reg, "tokenscout_cache_hits_total")
	require.NotNil(t, hits)
	assert.Equal(t, 10.0, hits.GetMetric()[0].GetCounter().GetValue())
}

func TestCollectorBreakerGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetBreakerOpen("ohlcv", true)
	c.SetBreakerOpen("meta", false)

	family := gatherFamily(t, reg, "tokenscout_breaker_open")
	require.NotNil(t, family)
	require.Len(t, family.GetMetric(), 2)

	values := make(map[string]float64)
	for _, m := range family.GetMetric() {
		values[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
	}
	assert.Equal(t, 1.0, values["ohlcv"])
	assert.Equal(t, 0.0, values["meta"])
}
