// Package oc exports OpenCensus views to an OpenCensus agent.
package oc

import (
	"sync"
	"time"

	"contrib.go.opencensus.io/exporter/ocagent"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats/view"

	"github.com/heroku/memmetrics/cmdutil"
)

var _ cmdutil.Server = (*Exporter)(nil)

// Exporter ships the data of every registered view to an agent. It is a
// cmdutil.Server.
type Exporter struct {
	logger logrus.FieldLogger
	oce    *ocagent.Exporter
	period time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

// NewExporter creates an unstarted agent exporter that reports view data
// every reportingPeriod.
func NewExporter(logger logrus.FieldLogger, reportingPeriod time.Duration, opts ...ocagent.ExporterOption) (*Exporter, error) {
	oce, err := ocagent.NewUnstartedExporter(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating ocagent exporter")
	}

	return &Exporter{
		logger: logger.WithField("component", "ocagent"),
		oce:    oce,
		period: reportingPeriod,
		done:   make(chan struct{}),
	}, nil
}

// Run starts the exporter and blocks until Stop is called. Pending view
// data is flushed before it returns.
//
// It implements oklog group's runFn.
func (e *Exporter) Run() error {
	if err := e.oce.Start(); err != nil {
		return errors.Wrap(err, "starting ocagent exporter")
	}

	view.RegisterExporter(e.oce)
	if e.period > 0 {
		view.SetReportingPeriod(e.period)
	}
	e.logger.WithField("reporting_period", e.period).Info("exporting views")

	<-e.done

	view.UnregisterExporter(e.oce)
	e.oce.Flush()
	return errors.Wrap(e.oce.Stop(), "stopping ocagent exporter")
}

// Stop makes Run return. It is safe to call more than once, and before
// Run.
//
// It implements oklog group's interruptFn.
func (e *Exporter) Stop(error) {
	e.stopOnce.Do(func() { close(e.done) })
}
