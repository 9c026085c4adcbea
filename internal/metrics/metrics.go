package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector registers and updates the engine's Prometheus metrics.
type Collector struct {
	cyclesTotal     prometheus.Counter
	emittedTotal    prometheus.Counter
	savingsPct      prometheus.Gauge
	cycleSeconds    prometheus.Histogram
	batchCalls      prometheus.Counter
	individualCalls prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	breakerState    *prometheus.GaugeVec
}

// NewCollector builds the collector and registers it on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenscout_cycles_total",
			Help: "Completed scan cycles.",
		}),
		emittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenscout_candidates_emitted_total",
			Help: "Candidates emitted across all cycles.",
		}),
		savingsPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokenscout_expensive_savings_ratio",
			Help: "Fraction of expensive calls avoided, last cycle.",
		}),
		cycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokenscout_cycle_duration_seconds",
			Help:    "Wall-clock duration of scan cycles.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		batchCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenscout_batch_calls_total",
			Help: "Successful batched provider calls.",
		}),
		individualCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenscout_individual_calls_total",
			Help: "Individual fallback provider calls.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenscout_cache_hits_total",
			Help: "Enrichment cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenscout_cache_misses_total",
			Help: "Enrichment cache misses.",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenscout_breaker_open",
			Help: "1 when the provider's circuit breaker is open.",
		}, []string{"provider"}),
	}

	reg.MustRegister(
		c.cyclesTotal, c.emittedTotal, c.savingsPct, c.cycleSeconds,
		c.batchCalls, c.individualCalls, c.cacheHits, c.cacheMisses,
		c.breakerState,
	)
	return c
}

// ObserveCycle records the outcome of one scan cycle.
func (c *Collector) ObserveCycle(emitted int, savingsPct float64, wallClock time.Duration) {
	c.cyclesTotal.Inc()
	c.emittedTotal.Add(float64(emitted))
	c.savingsPct.Set(savingsPct)
	c.cycleSeconds.Observe(wallClock.Seconds())
}

// ObserveFetch records one enrichment pass.
func (c *Collector) ObserveFetch(batch, individual, hits, misses int) {
	c.batchCalls.Add(float64(batch))
	c.individualCalls.Add(float64(individual))
	c.cacheHits.Add(float64(hits))
	c.cacheMisses.Add(float64(misses))
}

// SetBreakerOpen reflects a provider's breaker state.
func (c *Collector) SetBreakerOpen(provider string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	c.breakerState.WithLabelValues(provider).Set(v)
}
