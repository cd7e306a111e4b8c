// Package metrics exports executor activity as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	eventbus "github.com/hanpama/objrow/internal/eventbus"
	events "github.com/hanpama/objrow/internal/events"
)

// Collector holds the registered metrics.
type Collector struct {
	Compiles      *prometheus.CounterVec
	Fallbacks     prometheus.Counter
	Batches       *prometheus.CounterVec
	Rows          prometheus.Counter
	BatchErrors   prometheus.Counter
	BatchDuration prometheus.Histogram
}

// Register creates the metrics on reg and subscribes them to the global bus.
func Register(reg prometheus.Registerer) (*Collector, func()) {
	f := promauto.With(reg)
	c := &Collector{
		Compiles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "objrow_compiles_total",
			Help: "Number of trees prepared for evaluation",
		}, []string{"mode", "cached"}),
		Fallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "objrow_codegen_fallbacks_total",
			Help: "Number of trees evaluated by the interpreter after compilation failed",
		}),
		Batches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "objrow_batches_total",
			Help: "Number of evaluated batches",
		}, []string{"mode"}),
		Rows: f.NewCounter(prometheus.CounterOpts{
			Name: "objrow_rows_total",
			Help: "Number of rows evaluated successfully",
		}),
		BatchErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "objrow_batch_errors_total",
			Help: "Number of batches aborted by an evaluation error",
		}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "objrow_batch_duration_seconds",
			Help:    "Batch evaluation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
	return c, c.subscribe()
}

func (c *Collector) subscribe() func() {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.CompileFinish) {
			if e.Err != nil {
				return
			}
			cached := "false"
			if e.Cached {
				cached = "true"
			}
			c.Compiles.WithLabelValues(e.Mode, cached).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.CodegenFallback) {
			c.Fallbacks.Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.BatchFinish) {
			c.Batches.WithLabelValues(e.Mode).Inc()
			c.Rows.Add(float64(e.Evaluated))
			if e.Err != nil {
				c.BatchErrors.Inc()
			}
			c.BatchDuration.Observe(e.Duration.Seconds())
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
