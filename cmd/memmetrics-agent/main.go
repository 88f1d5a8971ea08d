// Command memmetrics-agent samples its own runtime memory and exports it.
//
// It is a reference for wiring package memmetrics into a service:
// register the views, run the sampler next to the exporters, and stop
// everything on SIGINT or SIGTERM.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"syscall"

	"github.com/joeshaw/envdecode"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/heroku/memmetrics"
	"github.com/heroku/memmetrics/cmdutil"
	"github.com/heroku/memmetrics/cmdutil/debug"
	"github.com/heroku/memmetrics/cmdutil/signals"
	"github.com/heroku/memmetrics/cmdutil/svclog"
	"github.com/heroku/memmetrics/oc"
	"github.com/heroku/memmetrics/provider/prom"
)

type config struct {
	Logger    svclog.Config
	Port      int `env:"PORT"`
	DebugPort int `env:"DEBUG_PORT"`

	OC oc.Config
}

func main() {
	var cfg config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %s\n", err)
		os.Exit(1)
	}

	logger := svclog.NewLogger(cfg.Logger)

	srv, err := newServer(logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("setting up")
	}

	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("exiting")
	}
}

// newServer registers the views and composes every enabled part of the
// agent. The sampler always runs; it fans out to Prometheus when PORT is
// set.
func newServer(logger logrus.FieldLogger, cfg config) (cmdutil.Server, error) {
	if err := memmetrics.RegisterAllViews(); err != nil {
		return nil, err
	}

	servers := []cmdutil.Server{
		signals.NewServer(logger, os.Interrupt, syscall.SIGTERM),
	}
	recorders := []memmetrics.Recorder{memmetrics.OpenCensus{}}

	if cfg.Port != 0 {
		reg := prometheus.NewRegistry()
		r, err := prom.New(reg)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, r)

		servers = append(servers, newMetricsServer(logger, cfg.Port, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	if cfg.OC.Enabled() {
		e, err := oc.NewExporter(logger, cfg.OC.ReportingPeriod, cfg.OC.ExporterOptions(cfg.Logger.AppName)...)
		if err != nil {
			return nil, err
		}
		servers = append(servers, e)
	}

	if cfg.DebugPort != 0 {
		servers = append(servers, debug.New(logger, cfg.DebugPort))
	}

	s := memmetrics.NewSampler(
		memmetrics.WithLogger(logger),
		memmetrics.WithRecorder(memmetrics.MultiRecorder(recorders...)),
	)
	servers = append(servers, memmetrics.NewServer(s))

	return cmdutil.MultiServer(servers...), nil
}

func newMetricsServer(logger logrus.FieldLogger, port int, h http.Handler) cmdutil.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)

	srv := &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(port)),
		Handler: mux,
	}

	return cmdutil.ServerFuncs{
		RunFunc: func() error {
			logger.WithFields(logrus.Fields{
				"at":      "binding",
				"service": "metrics",
				"addr":    srv.Addr,
			}).Info()

			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				return errors.Wrap(err, "serving metrics")
			}
			return nil
		},
		StopFunc: func(error) {
			srv.Close()
		},
	}
}
