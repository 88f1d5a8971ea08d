package memmetrics

import (
	"github.com/pkg/errors"
	"go.opencensus.io/stats/view"
)

// RegisterAllViews registers AllViews with the OpenCensus view manager.
//
// It is meant to be called once at startup. Registration stops at the first
// view the manager rejects; views registered before it stay registered.
func RegisterAllViews() error {
	for _, v := range AllViews {
		if err := view.Register(v); err != nil {
			return errors.Wrapf(err, "registering view %s", v.Name)
		}
	}
	return nil
}

// UnregisterAllViews removes AllViews from the OpenCensus view manager.
// Data collected by them is discarded.
func UnregisterAllViews() {
	view.Unregister(AllViews...)
}
