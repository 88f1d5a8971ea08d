package oc

import (
	"time"

	"contrib.go.opencensus.io/exporter/ocagent"
)

// Config of the OpenCensus agent exporter, via github.com/joeshaw/envdecode.
type Config struct {
	// AgentAddress in the form of 'host:port'. Leave empty to disable.
	// (ocagent.WithAddress).
	AgentAddress string `env:"OC_AGENT_ADDR"`
	// ReconnectionPeriod to use when reconnecting to the agent. Defaults to
	// 5s. (ocagent.WithReconnectionPeriod).
	ReconnectionPeriod time.Duration `env:"OC_RECONNECTION_PERIOD,default=5s"`
	// WithInsecure. Defaults to false (ocagent.WithInsecure).
	WithInsecure bool `env:"OC_INSECURE,default=false"`
	// ReportingPeriod is how often view data is exported. Defaults to the
	// sampling interval.
	ReportingPeriod time.Duration `env:"OC_REPORTING_PERIOD,default=10s"`
}

// Enabled reports whether an agent address is configured.
func (c Config) Enabled() bool { return c.AgentAddress != "" }

// ExporterOptions derived from the configuration.
func (c Config) ExporterOptions(serviceName string) []ocagent.ExporterOption {
	opts := []ocagent.ExporterOption{
		ocagent.WithAddress(c.AgentAddress),
		ocagent.WithReconnectionPeriod(c.ReconnectionPeriod),
		ocagent.WithServiceName(serviceName),
	}
	if c.WithInsecure {
		opts = append(opts, ocagent.WithInsecure())
	}
	return opts
}
