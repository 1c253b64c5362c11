// config.go: Loader configuration, defaults and validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"strings"
)

const (
	// DefaultPluginsDir is resolved against the process working directory.
	DefaultPluginsDir = "Plugins"
	// DefaultNameSymbol is the optional module identity export.
	DefaultNameSymbol = "ModuleName"
	// DefaultRequiresSymbol is the optional module dependency export.
	DefaultRequiresSymbol = "ModuleRequires"
	// DefaultLogLevel is used by hosts that build their own logger from config.
	DefaultLogLevel = "info"
)

// Config configures a PluginSystem.
//
// Example YAML:
//
//	plugins_dir: ./Plugins
//	extensions: [".so"]
//	events: [update, draw]
//	script_modules: true
type Config struct {
	// PluginsDir is scanned recursively for module files and created if missing.
	PluginsDir string `json:"plugins_dir" yaml:"plugins_dir"`

	// Extensions lists the accepted module file extensions, matched
	// case-insensitively. Defaults to the native extension, plus ".go" when
	// ScriptModules is set.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// Symbols looked up in every module.
	ExportSymbol   string `json:"export_symbol,omitempty" yaml:"export_symbol,omitempty"`
	NameSymbol     string `json:"name_symbol,omitempty" yaml:"name_symbol,omitempty"`
	RequiresSymbol string `json:"requires_symbol,omitempty" yaml:"requires_symbol,omitempty"`

	// Events lists the frame events dispatched ("update", "draw").
	// Initialize always fires once after startup. A nil list enables both;
	// an explicitly empty list disables frame dispatch.
	Events []string `json:"events" yaml:"events"`

	// ScriptModules enables the yaegi opener for Go source modules.
	ScriptModules bool   `json:"script_modules,omitempty" yaml:"script_modules,omitempty"`
	ScriptGoPath  string `json:"script_gopath,omitempty" yaml:"script_gopath,omitempty"`

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// DefaultConfig returns the configuration used when the host supplies none.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.PluginsDir == "" {
		c.PluginsDir = DefaultPluginsDir
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{NativeModuleExtension}
		if c.ScriptModules {
			c.Extensions = append(c.Extensions, ScriptModuleExtension)
		}
	}
	extensions := make([]string, len(c.Extensions))
	for i, ext := range c.Extensions {
		extensions[i] = normalizeExtension(ext)
	}
	c.Extensions = extensions
	if c.ExportSymbol == "" {
		c.ExportSymbol = DefaultExportSymbol
	}
	if c.NameSymbol == "" {
		c.NameSymbol = DefaultNameSymbol
	}
	if c.RequiresSymbol == "" {
		c.RequiresSymbol = DefaultRequiresSymbol
	}
	if c.Events == nil {
		c.Events = []string{string(EventUpdate), string(EventDraw)}
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the configuration after defaults have been applied.
func (c Config) Validate() error {
	if strings.TrimSpace(c.PluginsDir) == "" {
		return NewConfigValidationError("plugins_dir is required", nil)
	}
	if len(c.Extensions) == 0 {
		return NewConfigValidationError("at least one module extension is required", nil)
	}
	for _, ext := range c.Extensions {
		if normalizeExtension(ext) == "" {
			return NewConfigValidationError("empty module extension", nil)
		}
	}
	if c.ExportSymbol == "" {
		return NewConfigValidationError("export_symbol is required", nil)
	}
	for _, e := range c.Events {
		switch LifecycleEvent(strings.ToLower(strings.TrimSpace(e))) {
		case EventUpdate, EventDraw:
		default:
			return NewConfigValidationError(fmt.Sprintf("unknown frame event %q", e), nil).
				WithContext("event", e)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return NewInvalidLogLevelError(c.LogLevel, nil)
	}
	return nil
}

// EventEnabled reports whether event is dispatched. Initialize always is.
func (c Config) EventEnabled(event LifecycleEvent) bool {
	if event == EventInitialize {
		return true
	}
	for _, e := range c.Events {
		if LifecycleEvent(strings.ToLower(strings.TrimSpace(e))) == event {
			return true
		}
	}
	return false
}
