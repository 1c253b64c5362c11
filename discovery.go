// discovery.go: Plugins directory scanning and module loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ModuleLoadFailure records a candidate file that could not be loaded.
type ModuleLoadFailure struct {
	Path string
	Err  error
}

// DiscoveryEngine finds module files under the plugins directory and loads
// them.
//
// Discovery never fails as a whole. A missing directory is created, an
// unreadable sub-directory is skipped, and a file that cannot be loaded is
// logged and skipped; everything that did load is returned in walk order.
// The walk is lexical (filepath.WalkDir), so the order is stable for a given
// filesystem state and so is the dispatch order derived from it.
//
// Example usage:
//
//	engine := NewDiscoveryEngine(config, map[string]ModuleOpener{
//	    ".so": NewNativeOpener(),
//	}, resolver, logger, nil)
//	modules := engine.Discover(ctx, "Plugins")
type DiscoveryEngine struct {
	openers        map[string]ModuleOpener
	extensions     map[string]bool
	nameSymbol     string
	requiresSymbol string
	resolver       *ModuleResolver
	logger         Logger
	metrics        MetricsCollector

	mu       sync.Mutex
	failures []ModuleLoadFailure
}

// NewDiscoveryEngine creates a discovery engine. openers maps a lower-case
// extension (with leading dot) to the opener that loads it; only extensions
// listed in config.Extensions are considered.
func NewDiscoveryEngine(config Config, openers map[string]ModuleOpener, resolver *ModuleResolver, logger Logger, metrics MetricsCollector) *DiscoveryEngine {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	if metrics == nil {
		metrics = NewDefaultMetricsCollector()
	}
	if resolver == nil {
		resolver = NewModuleResolver(logger)
	}

	engine := &DiscoveryEngine{
		openers:        make(map[string]ModuleOpener, len(openers)),
		extensions:     make(map[string]bool, len(config.Extensions)),
		nameSymbol:     config.NameSymbol,
		requiresSymbol: config.RequiresSymbol,
		resolver:       resolver,
		logger:         logger,
		metrics:        metrics,
	}
	for ext, opener := range openers {
		engine.openers[normalizeExtension(ext)] = opener
	}
	for _, ext := range config.Extensions {
		engine.extensions[normalizeExtension(ext)] = true
	}
	return engine
}

// Discover loads every candidate module under dir, recursively.
func (d *DiscoveryEngine) Discover(ctx context.Context, dir string) []*Module {
	d.mu.Lock()
	d.failures = nil
	d.mu.Unlock()

	root, err := filepath.Abs(dir)
	if err != nil {
		root = filepath.Clean(dir)
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		d.logger.Warn("Plugins directory unavailable, no modules loaded",
			"path", root,
			"error", NewPluginsDirError(root, err))
		return nil
	}

	d.logger.Info("Loading modules", "path", root)

	var modules []*Module
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			d.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if entry.IsDir() || !d.isCandidate(path, entry) {
			return nil
		}

		// Paths the resolver already knows are reused, never reopened.
		if m, ok := d.resolver.ResolvePath(path); ok {
			d.logger.Debug("Module already loaded", "module", m.ID, "path", m.Path)
			modules = append(modules, m)
			return nil
		}

		m, err := d.load(path)
		if err != nil {
			d.recordFailure(path, err)
			return nil
		}

		d.resolver.Register(m)
		modules = append(modules, m)
		d.metrics.IncrementCounter(MetricModulesLoaded,
			map[string]string{"kind": string(m.Kind)}, 1)
		d.logger.Debug("Module loaded", "module", m.ID, "path", m.Path, "kind", m.Kind)
		return nil
	})
	if walkErr != nil {
		d.logger.Warn("Module discovery stopped early",
			"path", root,
			"loaded", len(modules),
			"error", walkErr)
	}

	return modules
}

// Failures returns the candidates that failed to load during the last Discover.
func (d *DiscoveryEngine) Failures() []ModuleLoadFailure {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]ModuleLoadFailure, len(d.failures))
	copy(out, d.failures)
	return out
}

func (d *DiscoveryEngine) isCandidate(path string, entry fs.DirEntry) bool {
	if !d.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}

	mode := entry.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			d.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			return false
		}
		mode = info.Mode()
	}
	return mode.IsRegular()
}

func (d *DiscoveryEngine) load(path string) (m *Module, err error) {
	ext := strings.ToLower(filepath.Ext(path))
	opener, ok := d.openers[ext]
	if !ok {
		return nil, NewNoOpenerError(path, ext)
	}

	defer withCustomRecoveryHandler(func(recovered any, stack []byte) {
		m = nil
		err = NewModuleLoadError(path, fmt.Errorf("opener panicked: %v", recovered)).
			WithContext("stack", string(stack))
	})()

	handle, err := opener.Open(path)
	if err != nil {
		if !HasErrorCode(err, ErrCodeModuleLoadFailed) {
			err = NewModuleLoadError(path, err)
		}
		return nil, err
	}

	m = NewModule(moduleIDFromPath(path), path, opener.Kind(), handle)
	d.readMetadata(m)
	return m, nil
}

// readMetadata applies the optional identity and dependency exports.
func (d *DiscoveryEngine) readMetadata(m *Module) {
	if d.nameSymbol != "" {
		if sym, err := m.Lookup(d.nameSymbol); err == nil {
			var (
				name string
				ok   bool
			)
			if p := safeCall(func() { name, ok = stringSymbol(sym) }); p != nil {
				ok = false
			}
			if ok && name != "" {
				m.ID = name
			} else {
				d.logger.Warn("Ignoring module name export",
					"module", m.ID,
					"error", NewModuleMetadataTypeError(m.ID, d.nameSymbol, sym))
			}
		}
	}

	if d.requiresSymbol != "" {
		if sym, err := m.Lookup(d.requiresSymbol); err == nil {
			var (
				requires []string
				ok       bool
			)
			if p := safeCall(func() { requires, ok = stringsSymbol(sym) }); p != nil {
				ok = false
			}
			if ok {
				m.Requires = requires
			} else {
				d.logger.Warn("Ignoring module requires export",
					"module", m.ID,
					"error", NewModuleMetadataTypeError(m.ID, d.requiresSymbol, sym))
			}
		}
	}
}

func (d *DiscoveryEngine) recordFailure(path string, err error) {
	d.mu.Lock()
	d.failures = append(d.failures, ModuleLoadFailure{Path: path, Err: err})
	d.mu.Unlock()

	d.metrics.IncrementCounter(MetricModulesFailed, nil, 1)
	d.logger.Error("Failed to load module, skipping",
		"path", path,
		"error", err)
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
