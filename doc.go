// Package memmetrics publishes Go runtime memory usage as OpenCensus gauges.
//
// A background sampler reads the runtime's memory statistics every 10
// seconds, splits them into pools, and records one measurement per pool
// tagged with its area (heap or nonheap):
//
//		jvm/memory/used       bytes in use by the pool
//		jvm/memory/committed  bytes reserved from the OS for the pool
//		jvm/memory/max        upper bound of the pool, -1 when unbounded
//
// The metric names are shared with JVM services so that dashboards and
// alerts apply to both.
//
// Typical use:
//
//		if err := memmetrics.RegisterAllViews(); err != nil {
//			return err
//		}
//		memmetrics.Start()
//		defer memmetrics.Stop()
//
// All views use last-value aggregation. Several pools share the nonheap
// area, so within a tick the last nonheap pool recorded is the value that
// is exported for area=nonheap. Use a per-pool Recorder if totals matter.
package memmetrics
