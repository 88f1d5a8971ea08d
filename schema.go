package memmetrics

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Measure names. They double as view names.
const (
	UsedName      = "jvm/memory/used"
	CommittedName = "jvm/memory/committed"
	MaxName       = "jvm/memory/max"
)

const (
	usedDescription      = "The amount of used memory"
	committedDescription = "The amount of memory in bytes that is committed for the runtime to use"
	maxDescription       = "The maximum amount of memory in bytes that can be used for memory management"
)

// KeyArea tags every measurement with the Area of its pool.
var KeyArea = tag.MustNewKey("area")

var (
	MemoryUsed      = stats.Int64(UsedName, usedDescription, stats.UnitBytes)
	MemoryCommitted = stats.Int64(CommittedName, committedDescription, stats.UnitBytes)
	MemoryMax       = stats.Int64(MaxName, maxDescription, stats.UnitBytes)
)

var (
	MemoryUsedView = &view.View{
		Name:        UsedName,
		Description: usedDescription,
		Measure:     MemoryUsed,
		TagKeys:     []tag.Key{KeyArea},
		Aggregation: view.LastValue(),
	}
	MemoryCommittedView = &view.View{
		Name:        CommittedName,
		Description: committedDescription,
		Measure:     MemoryCommitted,
		TagKeys:     []tag.Key{KeyArea},
		Aggregation: view.LastValue(),
	}
	MemoryMaxView = &view.View{
		Name:        MaxName,
		Description: maxDescription,
		Measure:     MemoryMax,
		TagKeys:     []tag.Key{KeyArea},
		Aggregation: view.LastValue(),
	}
)

// AllViews lists the views in registration order.
var AllViews = []*view.View{
	MemoryUsedView,
	MemoryCommittedView,
	MemoryMaxView,
}
