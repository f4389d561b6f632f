package main

import "github.com/prometheus/client_golang/prometheus"

const namespace = "cpustream"

// Disconnect kinds recorded by sessionDisconnects.
const (
	disconnectKindRoutine    = "routine"
	disconnectKindUnexpected = "unexpected"
	disconnectKindRemote     = "remote"
	disconnectKindShutdown   = "shutdown"
)

// telemetry holds the Prometheus collectors for the sampler, hub and sessions.
type telemetry struct {
	hubFeeds           prometheus.Gauge
	hubPublished       prometheus.Counter
	hubOverwrites      prometheus.Counter
	samplerTicks       prometheus.Counter
	samplerFailures    prometheus.Counter
	sessionDisconnects *prometheus.CounterVec
}

// newTelemetry creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func newTelemetry(reg prometheus.Registerer) *telemetry {
	t := &telemetry{
		hubFeeds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "feeds",
			Help:      "Number of live subscriber feeds.",
		}),
		hubPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "published_total",
			Help:      "Total number of snapshots published to the hub.",
		}),
		hubOverwrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "overwrites_total",
			Help:      "Total number of undelivered snapshots replaced by a newer one.",
		}),
		samplerTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "ticks_total",
			Help:      "Total number of sampler ticks.",
		}),
		samplerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "failures_total",
			Help:      "Total number of failed CPU reads.",
		}),
		sessionDisconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "disconnects_total",
			Help:      "Total number of viewer sessions ended, by kind.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			t.hubFeeds,
			t.hubPublished,
			t.hubOverwrites,
			t.samplerTicks,
			t.samplerFailures,
			t.sessionDisconnects,
		)
	}
	return t
}
