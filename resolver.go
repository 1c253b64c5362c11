// resolver.go: Module reference resolution against already-loaded modules
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"path/filepath"
	"sync"
)

// ModuleResolver is the table of modules loaded into this process.
//
// When one module references another by identity, the reference is answered
// from this table before any opener goes to disk. A reference that matches
// nothing is an ordinary outcome: it is logged and reported as not found,
// never as an error.
type ModuleResolver struct {
	mu      sync.RWMutex
	modules []*Module
	logger  Logger
}

// NewModuleResolver creates an empty resolver.
func NewModuleResolver(logger Logger) *ModuleResolver {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &ModuleResolver{logger: logger}
}

// Register records a loaded module. Duplicate identities are kept; Resolve
// returns the first one registered.
func (r *ModuleResolver) Register(m *Module) {
	if m == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.modules {
		if existing.ID == m.ID {
			r.logger.Warn("Duplicate module identity, first registration wins",
				"module", m.ID,
				"path", m.Path,
				"existing_path", existing.Path)
			break
		}
	}
	r.modules = append(r.modules, m)
}

// Resolve returns the loaded module whose identity is exactly id.
func (r *ModuleResolver) Resolve(id string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.modules {
		if m.ID == id {
			r.logger.Debug("Resolved module reference", "module", id, "path", m.Path)
			return m, true
		}
	}

	r.logger.Info("Could not resolve module reference", "module", id)
	return nil, false
}

// ResolvePath returns the module already loaded from path, if any.
func (r *ModuleResolver) ResolvePath(path string) (*Module, bool) {
	clean := filepath.Clean(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.modules {
		if m.Path == clean {
			return m, true
		}
	}
	return nil, false
}

// ResolveDependencies resolves every identity m declares in Requires and
// returns the ones no loaded module satisfies.
func (r *ModuleResolver) ResolveDependencies(m *Module) []string {
	if m == nil {
		return nil
	}

	var unresolved []string
	for _, id := range m.Requires {
		if _, ok := r.Resolve(id); !ok {
			unresolved = append(unresolved, id)
		}
	}
	if len(unresolved) > 0 {
		r.logger.Warn("Module has unresolved references",
			"module", m.ID,
			"unresolved", unresolved,
			"error", NewModuleUnresolvedError(unresolved[0]))
	}
	return unresolved
}

// Modules returns the registered modules in registration order.
func (r *ModuleResolver) Modules() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Len returns the number of registered modules.
func (r *ModuleResolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
