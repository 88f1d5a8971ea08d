// Package prom records runtime memory pools as Prometheus gauges.
//
// Metric names follow Prometheus conventions:
//
//		jvm_memory_used_bytes{area="heap|nonheap"}
//		jvm_memory_committed_bytes{area="heap|nonheap"}
//		jvm_memory_max_bytes{area="heap|nonheap"}
package prom

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/heroku/memmetrics"
)

var _ memmetrics.Recorder = (*Recorder)(nil)

// Recorder sets one GaugeVec per measure.
type Recorder struct {
	used      *prometheus.GaugeVec
	committed *prometheus.GaugeVec
	max       *prometheus.GaugeVec
}

// New registers the gauges with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	labels := []string{memmetrics.KeyArea.Name()}

	r := &Recorder{
		used: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jvm_memory_used_bytes",
			Help: memmetrics.MemoryUsed.Description(),
		}, labels),
		committed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jvm_memory_committed_bytes",
			Help: memmetrics.MemoryCommitted.Description(),
		}, labels),
		max: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jvm_memory_max_bytes",
			Help: memmetrics.MemoryMax.Description(),
		}, labels),
	}

	for _, c := range []prometheus.Collector{r.used, r.committed, r.max} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering memory gauges")
		}
	}
	return r, nil
}

// Record implements memmetrics.Recorder.
func (r *Recorder) Record(_ context.Context, p memmetrics.Pool) error {
	area := string(p.Area)

	r.used.WithLabelValues(area).Set(float64(p.Used))
	r.committed.WithLabelValues(area).Set(float64(p.Committed))
	r.max.WithLabelValues(area).Set(float64(p.Max))
	return nil
}
