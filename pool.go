package memmetrics

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
)

// Area classifies a memory pool.
type Area string

// Areas.
const (
	Heap    Area = "heap"
	NonHeap Area = "nonheap"
)

// Undefined is the Max of a pool without a configured ceiling.
const Undefined int64 = -1

// Pool is a point-in-time sample of one memory pool.
type Pool struct {
	Name      string
	Area      Area
	Used      int64
	Committed int64
	Max       int64
}

// An Enumerator lists the memory pools of the runtime.
type Enumerator interface {
	Pools(ctx context.Context) ([]Pool, error)
}

// EnumeratorFunc is a function which implements the Enumerator interface.
type EnumeratorFunc func(ctx context.Context) ([]Pool, error)

// Pools calls fn.
func (fn EnumeratorFunc) Pools(ctx context.Context) ([]Pool, error) { return fn(ctx) }

// RuntimePools enumerates the pools of the Go runtime from a single
// runtime.MemStats snapshot. The heap pool comes first.
type RuntimePools struct{}

var _ Enumerator = RuntimePools{}

// Pools implements Enumerator.
func (RuntimePools) Pools(context.Context) ([]Pool, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return poolsFrom(&ms, memoryLimit()), nil
}

func poolsFrom(ms *runtime.MemStats, limit int64) []Pool {
	return []Pool{
		{Name: "heap", Area: Heap, Used: clamp(ms.HeapInuse), Committed: clamp(ms.HeapSys - ms.HeapReleased), Max: limit},
		{Name: "stack", Area: NonHeap, Used: clamp(ms.StackInuse), Committed: clamp(ms.StackSys), Max: Undefined},
		{Name: "mspan", Area: NonHeap, Used: clamp(ms.MSpanInuse), Committed: clamp(ms.MSpanSys), Max: Undefined},
		{Name: "mcache", Area: NonHeap, Used: clamp(ms.MCacheInuse), Committed: clamp(ms.MCacheSys), Max: Undefined},
		{Name: "buckhash", Area: NonHeap, Used: clamp(ms.BuckHashSys), Committed: clamp(ms.BuckHashSys), Max: Undefined},
		{Name: "gc", Area: NonHeap, Used: clamp(ms.GCSys), Committed: clamp(ms.GCSys), Max: Undefined},
		{Name: "other", Area: NonHeap, Used: clamp(ms.OtherSys), Committed: clamp(ms.OtherSys), Max: Undefined},
	}
}

// memoryLimit reports the runtime's soft memory limit, or Undefined when
// none is set.
func memoryLimit() int64 {
	// A negative input reads the limit without changing it.
	if l := debug.SetMemoryLimit(-1); l != math.MaxInt64 {
		return l
	}
	return Undefined
}

func clamp(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}
