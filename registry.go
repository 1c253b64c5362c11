// registry.go: Ordered, append-only collection of activated plugins
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"sync"
)

// PluginHandle is an activated plugin instance and where it came from.
type PluginHandle struct {
	Name   string
	Module *Module
	Plugin GamePlugin
	// Index is the position in the registry, which is also dispatch order.
	Index int

	drawer Drawer
}

func newPluginHandle(name string, m *Module, plugin GamePlugin) *PluginHandle {
	h := &PluginHandle{Name: name, Module: m, Plugin: plugin, Index: -1}
	if d, ok := plugin.(Drawer); ok {
		h.drawer = d
	}
	return h
}

// ModuleID returns the identity of the module the plugin was activated from.
func (h *PluginHandle) ModuleID() string {
	if h.Module == nil {
		return ""
	}
	return h.Module.ID
}

// TypeName returns the dynamic type of the instance.
func (h *PluginHandle) TypeName() string {
	return fmt.Sprintf("%T", h.Plugin)
}

// CanDraw reports whether the instance implements Drawer.
func (h *PluginHandle) CanDraw() bool {
	return h.drawer != nil
}

// String implements fmt.Stringer.
func (h *PluginHandle) String() string {
	return fmt.Sprintf("%s (%s)", h.Name, h.ModuleID())
}

// call returns the method bound to event, or nil when the instance does not
// take part in it.
func (h *PluginHandle) call(event LifecycleEvent) func() {
	switch event {
	case EventInitialize:
		return h.Plugin.Initialize
	case EventUpdate:
		return h.Plugin.Update
	case EventDraw:
		if h.drawer != nil {
			return h.drawer.Draw
		}
	}
	return nil
}

// Registry holds activated plugins in activation order.
//
// It is filled during startup and sealed before the first lifecycle event;
// afterwards it is only iterated.
type Registry struct {
	mu      sync.RWMutex
	handles []*PluginHandle
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Append adds a handle at the end of the registry.
func (r *Registry) Append(h *PluginHandle) error {
	if h == nil {
		return NewRegistryNilHandleError()
	}
	if isNilValue(h.Plugin) {
		return NewRegistryNilPluginError(h.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return NewRegistrySealedError(h.Name)
	}
	h.Index = len(r.handles)
	r.handles = append(r.handles, h)
	return nil
}

// Seal forbids further appends.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Handles returns a copy of the registry contents in order.
func (r *Registry) Handles() []*PluginHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*PluginHandle, len(r.handles))
	copy(out, r.handles)
	return out
}

// snapshot returns the backing slice once sealed; callers must not modify it.
func (r *Registry) snapshot() []*PluginHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[:len(r.handles):len(r.handles)]
}
