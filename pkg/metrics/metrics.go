// Package metrics exposes prometheus instruments for lattice builds, selections,
// MIDI imports and player failures.
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import results.
const (
	ResultOK          = "ok"
	ResultUnsupported = "unsupported"
	ResultInvalid     = "invalid"
)

// Collector owns its registry so several engines (and tests) never clash on
// the global default registry.
type Collector struct {
	registry *prometheus.Registry

	builds       prometheus.Counter
	buildSeconds prometheus.Histogram
	selections   *prometheus.CounterVec
	imports      *prometheus.CounterVec
	playerErrors prometheus.Counter
}

// New creates a Collector with all instruments registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tonnetz_lattice_builds_total",
			Help: "Total number of lattices built",
		}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tonnetz_lattice_build_seconds",
			Help:    "Duration of lattice builds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tonnetz_selections_total",
				Help: "Total number of node selections",
			},
			[]string{"activated"},
		),
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tonnetz_midi_imports_total",
				Help: "Total number of MIDI file imports",
			},
			[]string{"result"},
		),
		playerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tonnetz_player_errors_total",
			Help: "Total number of notes the player failed to trigger",
		}),
	}
	c.registry.MustRegister(
		c.builds,
		c.buildSeconds,
		c.selections,
		c.imports,
		c.playerErrors,
		collectors.NewGoCollector(),
	)
	return c
}

// LatticeBuilt records one build that took d.
func (c *Collector) LatticeBuilt(d time.Duration) {
	if c == nil {
		return
	}
	c.builds.Inc()
	c.buildSeconds.Observe(d.Seconds())
}

// Selected records one node selection.
func (c *Collector) Selected(activated bool) {
	if c == nil {
		return
	}
	label := "false"
	if activated {
		label = "true"
	}
	c.selections.WithLabelValues(label).Inc()
}

// Imported records one MIDI import with its result (ResultOK, ResultUnsupported, ResultInvalid).
func (c *Collector) Imported(result string) {
	if c == nil {
		return
	}
	c.imports.WithLabelValues(result).Inc()
}

// PlayerFailed records one failed note trigger.
func (c *Collector) PlayerFailed() {
	if c == nil {
		return
	}
	c.playerErrors.Inc()
}

// Registry returns the registry holding the instruments.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
