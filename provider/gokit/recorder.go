// Package gokit records runtime memory pools into go-kit gauges.
package gokit

import (
	"context"

	kitmetrics "github.com/go-kit/kit/metrics"

	"github.com/heroku/memmetrics"
)

var _ memmetrics.Recorder = (*Recorder)(nil)

// Recorder sets one gauge per measure, labelled with the pool's area.
type Recorder struct {
	// Used reports the bytes in use by the pool.
	Used kitmetrics.Gauge

	// Committed reports the bytes reserved from the OS for the pool.
	Committed kitmetrics.Gauge

	// Max reports the pool's upper bound, -1 when unbounded.
	Max kitmetrics.Gauge
}

// New returns a Recorder setting the given gauges.
func New(used, committed, max kitmetrics.Gauge) *Recorder {
	return &Recorder{Used: used, Committed: committed, Max: max}
}

// NewFromProvider returns a Recorder whose gauges are created by newGauge,
// named after the measures of package memmetrics.
func NewFromProvider(newGauge func(name string) kitmetrics.Gauge) *Recorder {
	return New(
		newGauge(memmetrics.UsedName),
		newGauge(memmetrics.CommittedName),
		newGauge(memmetrics.MaxName),
	)
}

// Record implements memmetrics.Recorder.
func (r *Recorder) Record(_ context.Context, p memmetrics.Pool) error {
	lvs := []string{memmetrics.KeyArea.Name(), string(p.Area)}

	r.Used.With(lvs...).Set(float64(p.Used))
	r.Committed.With(lvs...).Set(float64(p.Committed))
	r.Max.With(lvs...).Set(float64(p.Max))
	return nil
}
