// observability_test.go: metrics collector tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMetricsCollector(t *testing.T) {
	mc := NewDefaultMetricsCollector()
	labels := map[string]string{"plugin": "X", "event": "update"}

	mc.IncrementCounter(MetricLifecycleCalls, labels, 1)
	mc.IncrementCounter(MetricLifecycleCalls, map[string]string{"event": "update", "plugin": "X"}, 2)
	mc.SetGauge(MetricPluginsActive, nil, 3)
	mc.SetGauge(MetricPluginsActive, nil, 5)
	for _, v := range []float64{0.1, 0.3, 0.2} {
		mc.RecordHistogram(MetricDispatchDuration, nil, v)
	}

	assert.Equal(t, int64(3), mc.Counter(MetricLifecycleCalls, labels), "label order does not matter")
	assert.Equal(t, float64(5), mc.Gauge(MetricPluginsActive, nil))

	metrics := mc.GetMetrics()
	assert.Equal(t, int64(3), metrics[buildMetricKey(MetricLifecycleCalls, labels)])
	assert.Equal(t, 3, metrics[MetricDispatchDuration+"_count"])
	assert.InDelta(t, 0.6, metrics[MetricDispatchDuration+"_sum"], 1e-9)
	assert.Equal(t, 0.1, metrics[MetricDispatchDuration+"_min"])
	assert.Equal(t, 0.3, metrics[MetricDispatchDuration+"_max"])
}

func TestDefaultMetricsCollector_HistogramBounded(t *testing.T) {
	mc := NewDefaultMetricsCollector()
	for i := 0; i < 1500; i++ {
		mc.RecordHistogram("h", nil, float64(i))
	}
	metrics := mc.GetMetrics()
	assert.Equal(t, 1000, metrics["h_count"])
	assert.Equal(t, float64(500), metrics["h_min"])
}

func TestBuildMetricKey(t *testing.T) {
	assert.Equal(t, "m", buildMetricKey("m", nil))
	assert.Equal(t, "m_a_1_b_2", buildMetricKey("m", map[string]string{"b": "2", "a": "1"}))
}

func gatherValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) (float64, bool) {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, m := range family.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), true
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), true
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount()), true
			}
		}
	}
	return 0, false
}

func TestPrometheusMetricsCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	pc := NewPrometheusMetricsCollector(registry, "game")
	labels := map[string]string{"plugin": "X", "event": "update"}

	pc.IncrementCounter(MetricLifecycleFailures, labels, 2)
	pc.IncrementCounter(MetricLifecycleFailures, labels, 1)
	pc.SetGauge(MetricPluginsActive, nil, 4)
	pc.RecordHistogram(MetricDispatchDuration, map[string]string{"event": "update"}, 0.0002)

	v, ok := gatherValue(t, registry, "game_"+MetricLifecycleFailures, labels)
	require.True(t, ok)
	assert.Equal(t, float64(3), v)

	v, ok = gatherValue(t, registry, "game_"+MetricPluginsActive, nil)
	require.True(t, ok)
	assert.Equal(t, float64(4), v)

	v, ok = gatherValue(t, registry, "game_"+MetricDispatchDuration, map[string]string{"event": "update"})
	require.True(t, ok)
	assert.Equal(t, float64(1), v)

	assert.Equal(t, int64(3), pc.GetMetrics()[buildMetricKey(MetricLifecycleFailures, labels)])
}

func TestPrometheusMetricsCollector_LabelMismatchDropped(t *testing.T) {
	registry := prometheus.NewRegistry()
	pc := NewPrometheusMetricsCollector(registry, "")

	pc.IncrementCounter("events_total", map[string]string{"kind": "a"}, 1)
	assert.NotPanics(t, func() {
		pc.IncrementCounter("events_total", map[string]string{"other": "b"}, 1)
	})

	v, ok := gatherValue(t, registry, "events_total", map[string]string{"kind": "a"})
	require.True(t, ok)
	assert.Equal(t, float64(1), v)
}

func TestPrometheusMetricsCollector_WithPluginSystem(t *testing.T) {
	rec := &recorder{}
	registry := prometheus.NewRegistry()
	pc := NewPrometheusMetricsCollector(registry, "")
	opener := newFakeOpener().withModule("m.fake", map[string]Symbol{
		DefaultExportSymbol: []Export{recordingExport("P", rec, EventUpdate)},
	})

	ps, dir := newTestSystem(t, opener, nil, WithMetrics(pc))
	writeFiles(t, dir, "m.fake")
	ps.OnStartup(context.Background())
	ps.OnFrameUpdate()
	ps.OnFrameUpdate()

	v, ok := gatherValue(t, registry, MetricLifecycleFailures, map[string]string{"plugin": "P", "event": "update"})
	require.True(t, ok)
	assert.Equal(t, float64(2), v)

	v, ok = gatherValue(t, registry, MetricModulesLoaded, map[string]string{"kind": "fake"})
	require.True(t, ok)
	assert.Equal(t, float64(1), v)
}
