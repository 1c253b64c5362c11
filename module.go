// module.go: Loaded module handles and the opener abstraction
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/agilira/go-timecache"
)

// Symbol is a value exported by a loaded module.
type Symbol = any

// ModuleKind identifies the backend that loaded a module.
type ModuleKind string

const (
	// ModuleKindNative is a Go plugin (shared object) opened with package plugin.
	ModuleKindNative ModuleKind = "native"
	// ModuleKindScript is a Go source file interpreted by yaegi.
	ModuleKindScript ModuleKind = "script"
)

// ModuleHandle is the backend view of a loaded module.
type ModuleHandle interface {
	Lookup(name string) (Symbol, error)
}

// ModuleOpener loads a module file into the process.
type ModuleOpener interface {
	Kind() ModuleKind
	Open(path string) (ModuleHandle, error)
}

// ResolverAware openers are handed the module resolver when the plugin
// system starts loading. Host-supplied openers use it to answer references
// between modules from the ones already loaded.
type ResolverAware interface {
	UseResolver(resolver *ModuleResolver)
}

// Module is a loaded unit of code. Modules are never unloaded: instances
// activated from them rely on their code staying mapped.
type Module struct {
	// ID is the module identity used by the resolver.
	ID string
	// Path is the absolute file path the module was loaded from.
	Path string
	Kind ModuleKind
	// Requires lists the module identities this module references.
	Requires []string
	LoadedAt time.Time

	handle ModuleHandle
}

// NewModule wraps a backend handle.
func NewModule(id, path string, kind ModuleKind, handle ModuleHandle) *Module {
	return &Module{
		ID:       id,
		Path:     path,
		Kind:     kind,
		LoadedAt: timecache.CachedTime(),
		handle:   handle,
	}
}

// Lookup returns the exported symbol called name.
func (m *Module) Lookup(name string) (Symbol, error) {
	if m.handle == nil {
		return nil, NewSymbolNotFoundError(m.ID, name, nil)
	}
	sym, err := m.handle.Lookup(name)
	if err != nil {
		return nil, NewSymbolNotFoundError(m.ID, name, err)
	}
	return sym, nil
}

// Handle returns the backend handle.
func (m *Module) Handle() ModuleHandle {
	return m.handle
}

// String implements fmt.Stringer.
func (m *Module) String() string {
	return m.ID + " (" + m.Path + ")"
}

// moduleIDFromPath derives the default identity: the file name without extension.
func moduleIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// stringSymbol accepts the shapes a string export can take once looked up:
// a value (script modules), a pointer (native variables) or a function.
func stringSymbol(sym Symbol) (string, bool) {
	switch v := sym.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case func() string:
		return v(), true
	default:
		return "", false
	}
}

// stringsSymbol is stringSymbol for []string exports.
func stringsSymbol(sym Symbol) ([]string, bool) {
	switch v := sym.(type) {
	case []string:
		return v, true
	case *[]string:
		if v == nil {
			return nil, false
		}
		return *v, true
	case func() []string:
		return v(), true
	default:
		return nil, false
	}
}
