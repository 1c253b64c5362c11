// dispatch.go: Lifecycle event dispatch across the plugin registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"strings"
	"time"
)

// LifecycleEvent names a plugin lifecycle method.
type LifecycleEvent string

const (
	EventInitialize LifecycleEvent = "initialize"
	EventUpdate     LifecycleEvent = "update"
	EventDraw       LifecycleEvent = "draw"
)

// ParseLifecycleEvent parses an event name case-insensitively.
func ParseLifecycleEvent(s string) (LifecycleEvent, bool) {
	switch e := LifecycleEvent(strings.ToLower(strings.TrimSpace(s))); e {
	case EventInitialize, EventUpdate, EventDraw:
		return e, true
	default:
		return "", false
	}
}

// dispatchResult summarizes one pass over the registry.
type dispatchResult struct {
	calls    int
	failures int
	skipped  bool
}

// dispatch invokes event on every registered plugin in registry order.
//
// The pass owns the Ready to Dispatching transition; a call arriving in any
// other state, including a re-entrant call made by a plugin during the pass,
// is skipped. A panic in one plugin is recovered and logged and the pass
// moves on to the next plugin. Shutdown during a pass stops it after the
// current call.
func (ps *PluginSystem) dispatch(event LifecycleEvent) dispatchResult {
	if !ps.state.CompareAndSwap(int32(StateReady), int32(StateDispatching)) {
		ps.stats.skip()
		ps.logger.Debug("Skipping lifecycle event",
			"event", string(event),
			"state", ps.State().String())
		return dispatchResult{skipped: true}
	}
	defer ps.state.CompareAndSwap(int32(StateDispatching), int32(StateReady))

	var result dispatchResult
	start := time.Now()

	for _, h := range ps.registry.snapshot() {
		if ps.State() == StateTerminal {
			ps.logger.Debug("Dispatch interrupted by shutdown", "event", string(event))
			break
		}

		fn := h.call(event)
		if fn == nil {
			continue
		}

		labels := map[string]string{"plugin": h.Name, "event": string(event)}
		result.calls++
		ps.stats.call(h.Index, event)
		ps.metrics.IncrementCounter(MetricLifecycleCalls, labels, 1)

		p := safeCall(fn)
		if p == nil {
			continue
		}

		result.failures++
		err := NewLifecyclePanicError(event, h.Name, h.ModuleID(), p.Value, p.Stack)
		ps.logger.Error("Plugin lifecycle call failed",
			"event", string(event),
			"plugin", h.Name,
			"module", h.ModuleID(),
			"panic", fmt.Sprint(p.Value),
			"error", err,
			"stack", string(p.Stack))
		ps.stats.failure(h.Index, event, fmt.Sprint(p.Value))
		ps.metrics.IncrementCounter(MetricLifecycleFailures, labels, 1)
	}

	ps.stats.pass(event)
	ps.metrics.RecordHistogram(MetricDispatchDuration,
		map[string]string{"event": string(event)},
		time.Since(start).Seconds())
	return result
}
