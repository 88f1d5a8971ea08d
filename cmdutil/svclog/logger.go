// Package svclog provides logging facilities for standard services.
package svclog

import (
	"github.com/sirupsen/logrus"
)

// Config for logger.
type Config struct {
	AppName  string `env:"APP_NAME,required"`
	Deploy   string `env:"DEPLOY"`
	Dyno     string `env:"DYNO"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// NewLogger returns a new logger that includes the app, and the deploy and
// dyno when they are set, in each log line. It also sets the level of the
// standard logger.
func NewLogger(cfg Config) logrus.FieldLogger {
	logger := logrus.WithField("app", cfg.AppName)
	if cfg.Deploy != "" {
		logger = logger.WithField("deploy", cfg.Deploy)
	}
	if cfg.Dyno != "" {
		logger = logger.WithField("dyno", cfg.Dyno)
	}

	if l, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(l)
	}
	return logger
}
