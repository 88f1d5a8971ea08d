package memmetrics

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

// A Recorder publishes the used, committed and max values of a pool as one
// record tagged with the pool's area.
type Recorder interface {
	Record(ctx context.Context, p Pool) error
}

// RecorderFunc is a function which implements the Recorder interface.
type RecorderFunc func(ctx context.Context, p Pool) error

// Record calls fn.
func (fn RecorderFunc) Record(ctx context.Context, p Pool) error { return fn(ctx, p) }

// OpenCensus records pools into the OpenCensus stats pipeline, against
// MemoryUsed, MemoryCommitted and MemoryMax.
type OpenCensus struct{}

var _ Recorder = OpenCensus{}

// Record implements Recorder.
func (OpenCensus) Record(ctx context.Context, p Pool) error {
	return stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyArea, string(p.Area))},
		MemoryUsed.M(p.Used),
		MemoryCommitted.M(p.Committed),
		MemoryMax.M(p.Max),
	)
}

// MultiRecorder returns a Recorder that records every pool with each of rs
// in order. It stops at the first error.
func MultiRecorder(rs ...Recorder) Recorder {
	return RecorderFunc(func(ctx context.Context, p Pool) error {
		for _, r := range rs {
			if err := r.Record(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
