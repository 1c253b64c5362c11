// stats.go: Per-plugin dispatch counters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"sync"
	"time"

	timecache "github.com/agilira/go-timecache"
)

// PluginStats counts lifecycle calls for one registered plugin.
type PluginStats struct {
	Name   string `json:"name"`
	Module string `json:"module"`

	InitializeCalls uint64 `json:"initialize_calls"`
	UpdateCalls     uint64 `json:"update_calls"`
	DrawCalls       uint64 `json:"draw_calls"`

	Failures    uint64    `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	LastEvent   string    `json:"last_event,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// DispatchStats is a snapshot of dispatch activity since startup.
type DispatchStats struct {
	UpdatePasses  uint64        `json:"update_passes"`
	DrawPasses    uint64        `json:"draw_passes"`
	SkippedPasses uint64        `json:"skipped_passes"`
	Plugins       []PluginStats `json:"plugins"`
}

// TotalFailures sums failures across all plugins.
func (s DispatchStats) TotalFailures() uint64 {
	var total uint64
	for _, p := range s.Plugins {
		total += p.Failures
	}
	return total
}

// Plugin returns the stats entry for the named plugin.
func (s DispatchStats) Plugin(name string) (PluginStats, bool) {
	for _, p := range s.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return PluginStats{}, false
}

type statsTracker struct {
	mu      sync.Mutex
	update  uint64
	draw    uint64
	skipped uint64
	plugins []PluginStats
}

// reset sizes the tracker for the sealed registry.
func (st *statsTracker) reset(handles []*PluginHandle) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.plugins = make([]PluginStats, len(handles))
	for i, h := range handles {
		st.plugins[i] = PluginStats{Name: h.Name, Module: h.ModuleID()}
	}
}

func (st *statsTracker) pass(event LifecycleEvent) {
	st.mu.Lock()
	switch event {
	case EventUpdate:
		st.update++
	case EventDraw:
		st.draw++
	}
	st.mu.Unlock()
}

func (st *statsTracker) skip() {
	st.mu.Lock()
	st.skipped++
	st.mu.Unlock()
}

func (st *statsTracker) call(index int, event LifecycleEvent) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if index < 0 || index >= len(st.plugins) {
		return
	}
	p := &st.plugins[index]
	switch event {
	case EventInitialize:
		p.InitializeCalls++
	case EventUpdate:
		p.UpdateCalls++
	case EventDraw:
		p.DrawCalls++
	}
}

func (st *statsTracker) failure(index int, event LifecycleEvent, reason string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if index < 0 || index >= len(st.plugins) {
		return
	}
	p := &st.plugins[index]
	p.Failures++
	p.LastFailure = timecache.CachedTime()
	p.LastEvent = string(event)
	p.LastError = reason
}

func (st *statsTracker) snapshot() DispatchStats {
	st.mu.Lock()
	defer st.mu.Unlock()

	plugins := make([]PluginStats, len(st.plugins))
	copy(plugins, st.plugins)
	return DispatchStats{
		UpdatePasses:  st.update,
		DrawPasses:    st.draw,
		SkippedPasses: st.skipped,
		Plugins:       plugins,
	}
}
