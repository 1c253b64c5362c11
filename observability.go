// observability.go: Pluggable metrics collection for loading and dispatch
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"sort"
	"sync"
)

// Metric names emitted by the loader.
const (
	MetricModulesLoaded      = "pluginloader_modules_loaded_total"
	MetricModulesFailed      = "pluginloader_modules_failed_total"
	MetricActivations        = "pluginloader_activations_total"
	MetricPluginsActive      = "pluginloader_plugins_active"
	MetricLifecycleCalls     = "pluginloader_lifecycle_calls_total"
	MetricLifecycleFailures  = "pluginloader_lifecycle_failures_total"
	MetricDispatchDuration   = "pluginloader_dispatch_duration_seconds"
	MetricUnresolvedRequires = "pluginloader_unresolved_references_total"
)

// MetricsCollector receives loader metrics.
//
// Example usage:
//
//	collector.IncrementCounter("pluginloader_lifecycle_failures_total",
//	    map[string]string{"plugin": "spinner", "event": "update"}, 1)
//	collector.RecordHistogram("pluginloader_dispatch_duration_seconds",
//	    map[string]string{"event": "update"}, 0.0004)
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string, value int64)
	SetGauge(name string, labels map[string]string, value float64)
	RecordHistogram(name string, labels map[string]string, value float64)

	// GetMetrics returns a flat snapshot keyed by name and labels.
	GetMetrics() map[string]interface{}
}

// DefaultMetricsCollector is an in-memory MetricsCollector.
type DefaultMetricsCollector struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewDefaultMetricsCollector creates a new default metrics collector.
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounter implements MetricsCollector.
func (dmc *DefaultMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	dmc.counters[buildMetricKey(name, labels)] += value
}

// SetGauge implements MetricsCollector.
func (dmc *DefaultMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	dmc.gauges[buildMetricKey(name, labels)] = value
}

// RecordHistogram implements MetricsCollector. Only the last 1000
// observations per series are kept.
func (dmc *DefaultMetricsCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()

	key := buildMetricKey(name, labels)
	dmc.histograms[key] = append(dmc.histograms[key], value)
	if len(dmc.histograms[key]) > 1000 {
		dmc.histograms[key] = dmc.histograms[key][len(dmc.histograms[key])-1000:]
	}
}

// Counter returns the current value of a counter series.
func (dmc *DefaultMetricsCollector) Counter(name string, labels map[string]string) int64 {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()
	return dmc.counters[buildMetricKey(name, labels)]
}

// Gauge returns the current value of a gauge series.
func (dmc *DefaultMetricsCollector) Gauge(name string, labels map[string]string) float64 {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()
	return dmc.gauges[buildMetricKey(name, labels)]
}

// GetMetrics implements MetricsCollector.
func (dmc *DefaultMetricsCollector) GetMetrics() map[string]interface{} {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()

	metrics := make(map[string]interface{})
	for k, v := range dmc.counters {
		metrics[k] = v
	}
	for k, v := range dmc.gauges {
		metrics[k] = v
	}
	for k, v := range dmc.histograms {
		if len(v) == 0 {
			continue
		}
		sum, minVal, maxVal := 0.0, v[0], v[0]
		for _, val := range v {
			sum += val
			if val < minVal {
				minVal = val
			}
			if val > maxVal {
				maxVal = val
			}
		}
		metrics[k+"_count"] = len(v)
		metrics[k+"_sum"] = sum
		metrics[k+"_min"] = minVal
		metrics[k+"_max"] = maxVal
	}
	return metrics
}

// buildMetricKey builds a stable key from name and sorted labels.
func buildMetricKey(name string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += fmt.Sprintf("_%s_%s", k, labels[k])
	}
	return key
}
