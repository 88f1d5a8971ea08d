// Package otel records runtime memory pools as OpenTelemetry observable
// gauges.
//
// The gauges carry the same names, descriptions and unit as the OpenCensus
// views of package memmetrics, with the area as an attribute, so dashboards
// keep working across the migration.
package otel

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/heroku/memmetrics"
)

var _ memmetrics.Recorder = (*Recorder)(nil)

// Recorder keeps the last pool recorded per area and reports it whenever
// the meter collects.
type Recorder struct {
	used      metric.Int64ObservableGauge
	committed metric.Int64ObservableGauge
	max       metric.Int64ObservableGauge
	reg       metric.Registration

	mu   sync.Mutex
	last map[memmetrics.Area]memmetrics.Pool
}

// New creates the three gauges on meter.
func New(meter metric.Meter) (*Recorder, error) {
	r := &Recorder{last: make(map[memmetrics.Area]memmetrics.Pool)}

	var err error
	if r.used, err = gauge(meter, memmetrics.UsedName, memmetrics.MemoryUsed.Description()); err != nil {
		return nil, err
	}
	if r.committed, err = gauge(meter, memmetrics.CommittedName, memmetrics.MemoryCommitted.Description()); err != nil {
		return nil, err
	}
	if r.max, err = gauge(meter, memmetrics.MaxName, memmetrics.MemoryMax.Description()); err != nil {
		return nil, err
	}

	r.reg, err = meter.RegisterCallback(r.observe, r.used, r.committed, r.max)
	if err != nil {
		return nil, errors.Wrap(err, "registering memory gauge callback")
	}
	return r, nil
}

func gauge(meter metric.Meter, name, description string) (metric.Int64ObservableGauge, error) {
	g, err := meter.Int64ObservableGauge(name,
		metric.WithDescription(description),
		metric.WithUnit("By"),
	)
	return g, errors.Wrapf(err, "creating gauge %s", name)
}

// Record implements memmetrics.Recorder. A later pool of the same area
// replaces an earlier one.
func (r *Recorder) Record(_ context.Context, p memmetrics.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last[p.Area] = p
	return nil
}

func (r *Recorder) observe(_ context.Context, o metric.Observer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for area, p := range r.last {
		attrs := metric.WithAttributeSet(attribute.NewSet(attribute.String(memmetrics.KeyArea.Name(), string(area))))
		o.ObserveInt64(r.used, p.Used, attrs)
		o.ObserveInt64(r.committed, p.Committed, attrs)
		o.ObserveInt64(r.max, p.Max, attrs)
	}
	return nil
}

// Close stops reporting the gauges.
func (r *Recorder) Close() error {
	return r.reg.Unregister()
}
