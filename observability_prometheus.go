// observability_prometheus.go: Prometheus-backed MetricsCollector
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetricsCollector exports loader metrics to Prometheus.
//
// Vectors are created on first use and registered on the configured
// Registerer. The label names of a metric are fixed by its first
// observation; later observations with a different label set are dropped.
// GetMetrics answers from an in-memory mirror.
//
// Example usage:
//
//	registry := prometheus.NewRegistry()
//	collector := pluginloader.NewPrometheusMetricsCollector(registry, "game")
//	ps, err := pluginloader.NewPluginSystem(config, logger,
//	    pluginloader.WithMetrics(collector))
type PrometheusMetricsCollector struct {
	factory   promauto.Factory
	namespace string

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	labelNames map[string][]string

	mirror *DefaultMetricsCollector
}

// NewPrometheusMetricsCollector creates a collector registering on
// registerer. A nil registerer uses prometheus.DefaultRegisterer.
// namespace may be empty.
func NewPrometheusMetricsCollector(registerer prometheus.Registerer, namespace string) *PrometheusMetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusMetricsCollector{
		factory:    promauto.With(registerer),
		namespace:  namespace,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labelNames: make(map[string][]string),
		mirror:     NewDefaultMetricsCollector(),
	}
}

// IncrementCounter implements MetricsCollector.
func (pc *PrometheusMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	pc.mirror.IncrementCounter(name, labels, value)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	names, ok := pc.labelsFor(name, labels)
	if !ok {
		return
	}
	vec, exists := pc.counters[name]
	if !exists {
		vec = pc.factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: pc.namespace,
			Name:      name,
			Help:      helpFor(name),
		}, names)
		pc.counters[name] = vec
	}
	vec.With(labels).Add(float64(value))
}

// SetGauge implements MetricsCollector.
func (pc *PrometheusMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	pc.mirror.SetGauge(name, labels, value)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	names, ok := pc.labelsFor(name, labels)
	if !ok {
		return
	}
	vec, exists := pc.gauges[name]
	if !exists {
		vec = pc.factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: pc.namespace,
			Name:      name,
			Help:      helpFor(name),
		}, names)
		pc.gauges[name] = vec
	}
	vec.With(labels).Set(value)
}

// RecordHistogram implements MetricsCollector.
func (pc *PrometheusMetricsCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	pc.mirror.RecordHistogram(name, labels, value)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	names, ok := pc.labelsFor(name, labels)
	if !ok {
		return
	}
	vec, exists := pc.histograms[name]
	if !exists {
		vec = pc.factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: pc.namespace,
			Name:      name,
			Help:      helpFor(name),
			// Frame dispatch is expected well under a millisecond.
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, names)
		pc.histograms[name] = vec
	}
	vec.With(labels).Observe(value)
}

// GetMetrics implements MetricsCollector.
func (pc *PrometheusMetricsCollector) GetMetrics() map[string]interface{} {
	return pc.mirror.GetMetrics()
}

// labelsFor returns the label names fixed for name, recording them on first
// use. It reports false when labels does not match them.
func (pc *PrometheusMetricsCollector) labelsFor(name string, labels map[string]string) ([]string, bool) {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	known, exists := pc.labelNames[name]
	if !exists {
		pc.labelNames[name] = names
		return names, true
	}
	if len(known) != len(names) {
		return nil, false
	}
	for i := range known {
		if known[i] != names[i] {
			return nil, false
		}
	}
	return known, true
}

var metricHelp = map[string]string{
	MetricModulesLoaded:      "Modules loaded from the plugins directory, by kind",
	MetricModulesFailed:      "Module files that failed to load",
	MetricActivations:        "Plugin activations, by result",
	MetricPluginsActive:      "Plugins currently registered",
	MetricLifecycleCalls:     "Lifecycle calls made, by plugin and event",
	MetricLifecycleFailures:  "Lifecycle calls that panicked, by plugin and event",
	MetricDispatchDuration:   "Duration of one dispatch pass over the registry",
	MetricUnresolvedRequires: "Module references no loaded module satisfies",
}

func helpFor(name string) string {
	if help, ok := metricHelp[name]; ok {
		return help
	}
	return strings.ReplaceAll(name, "_", " ")
}
