// Package metrics exposes Prometheus telemetry for the patch, model and
// registry layers. A Collector implements the observer interface of each
// layer and can be passed to all three.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers addon framework metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	// Patch metrics
	layersApplied *prometheus.CounterVec
	layersRemoved *prometheus.CounterVec
	layers        *prometheus.GaugeVec
	dispatches    *prometheus.CounterVec

	// Model metrics
	modelFields *prometheus.GaugeVec

	// Registry metrics
	entries *prometheus.CounterVec
	lookups *prometheus.CounterVec

	// Boot metrics
	bootDuration *prometheus.HistogramVec
	addonsLoaded prometheus.Gauge
}

// NewCollector creates a collector whose metric names are prefixed with
// namespace. An empty namespace defaults to "addonkit".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "addonkit"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.layersApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patch",
			Name:      "layers_applied_total",
			Help:      "Total number of override layers applied",
		},
		[]string{"target"},
	)

	c.layersRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patch",
			Name:      "layers_removed_total",
			Help:      "Total number of override layers removed",
		},
		[]string{"target"},
	)

	c.layers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "patch",
			Name:      "layers",
			Help:      "Current number of override layers on a target",
		},
		[]string{"target"},
	)

	c.dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patch",
			Name:      "dispatch_total",
			Help:      "Total number of method calls dispatched through a target",
		},
		[]string{"target", "method"},
	)

	c.modelFields = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "fields",
			Help:      "Number of fields declared on a model",
		},
		[]string{"model"},
	)

	c.entries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "entries_total",
			Help:      "Total number of registry insertions by outcome",
		},
		[]string{"category", "outcome"},
	)

	c.lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "lookups_total",
			Help:      "Total number of registry lookups by result",
		},
		[]string{"category", "result"},
	)

	c.bootDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "boot",
			Name:      "duration_seconds",
			Help:      "Time taken to load and apply all addons",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"result"},
	)

	c.addonsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "boot",
			Name:      "addons_loaded",
			Help:      "Number of addons loaded by the last boot",
		},
	)

	c.registry.MustRegister(
		c.layersApplied,
		c.layersRemoved,
		c.layers,
		c.dispatches,
		c.modelFields,
		c.entries,
		c.lookups,
		c.bootDuration,
		c.addonsLoaded,
	)

	return c
}

// Registry returns the Prometheus registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// LayerApplied implements patch.Observer.
func (c *Collector) LayerApplied(target, layer string) {
	c.layersApplied.WithLabelValues(target).Inc()
	c.layers.WithLabelValues(target).Inc()
}

// LayerRemoved implements patch.Observer.
func (c *Collector) LayerRemoved(target, layer string) {
	c.layersRemoved.WithLabelValues(target).Inc()
	c.layers.WithLabelValues(target).Dec()
}

// Dispatched implements patch.Observer.
func (c *Collector) Dispatched(target, method string) {
	c.dispatches.WithLabelValues(target, method).Inc()
}

// FieldsDeclared implements model.Observer.
func (c *Collector) FieldsDeclared(model string, total int) {
	c.modelFields.WithLabelValues(model).Set(float64(total))
}

// EntryRegistered implements registry.Observer.
func (c *Collector) EntryRegistered(category, outcome string) {
	c.entries.WithLabelValues(category, outcome).Inc()
}

// EntryLookedUp implements registry.Observer.
func (c *Collector) EntryLookedUp(category string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.lookups.WithLabelValues(category, result).Inc()
}

// RecordBoot records one boot attempt.
func (c *Collector) RecordBoot(duration time.Duration, addons int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	} else {
		c.addonsLoaded.Set(float64(addons))
	}
	c.bootDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// Reset clears all per-label series. Used when the environment is reset.
func (c *Collector) Reset() {
	c.layersApplied.Reset()
	c.layersRemoved.Reset()
	c.layers.Reset()
	c.dispatches.Reset()
	c.modelFields.Reset()
	c.entries.Reset()
	c.lookups.Reset()
	c.addonsLoaded.Set(0)
}
