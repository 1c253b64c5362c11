// config_watcher.go: Live frame-event switching through an Argus file watcher
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
)

// ConfigWatcherOptions configures a ConfigWatcher.
type ConfigWatcherOptions struct {
	PollInterval time.Duration
	CacheTTL     time.Duration
	Env          EnvConfigOptions
	AuditConfig  argus.AuditConfig
	ErrorHandler func(err error, path string)
}

// DefaultConfigWatcherOptions returns options polling once a second with
// auditing disabled.
func DefaultConfigWatcherOptions() ConfigWatcherOptions {
	return ConfigWatcherOptions{
		PollInterval: time.Second,
		CacheTTL:     500 * time.Millisecond,
		Env:          DefaultEnvConfigOptions(),
	}
}

// ConfigWatcher re-reads a configuration file when it changes and applies
// the frame event set to a running PluginSystem. Nothing else is reloaded:
// modules, symbols and the plugins directory are fixed at startup.
//
// Example usage:
//
//	watcher, err := pluginloader.NewConfigWatcher(ps, "plugins.yaml",
//	    pluginloader.DefaultConfigWatcherOptions())
//	if err != nil {
//	    return err
//	}
//	if err := watcher.Start(); err != nil {
//	    return err
//	}
//	defer watcher.Stop()
type ConfigWatcher struct {
	system  *PluginSystem
	path    string
	options ConfigWatcherOptions
	logger  Logger

	watcher     *argus.Watcher
	auditLogger *argus.AuditLogger

	mu       sync.Mutex
	running  atomic.Bool
	stopOnce sync.Once
	reloads  atomic.Int64
}

// NewConfigWatcher creates a watcher for path bound to system.
func NewConfigWatcher(system *PluginSystem, path string, options ConfigWatcherOptions) (*ConfigWatcher, error) {
	if system == nil {
		return nil, NewConfigWatcherError("plugin system is required", nil)
	}
	if path == "" {
		return nil, NewConfigWatcherError("configuration path is required", nil)
	}
	if options.PollInterval <= 0 {
		options.PollInterval = time.Second
	}
	if options.CacheTTL <= 0 || options.CacheTTL > options.PollInterval {
		options.CacheTTL = options.PollInterval / 2
	}

	cw := &ConfigWatcher{
		system:  system,
		path:    path,
		options: options,
		logger:  system.logger.With("component", "config_watcher"),
	}

	if options.AuditConfig.Enabled {
		auditLogger, err := argus.NewAuditLogger(options.AuditConfig)
		if err != nil {
			return nil, NewConfigWatcherError("failed to create audit logger", err)
		}
		cw.auditLogger = auditLogger
	}

	cw.watcher = argus.New(argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      1,
		Audit:                options.AuditConfig,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, path string) {
			if options.ErrorHandler != nil {
				options.ErrorHandler(err, path)
				return
			}
			cw.logger.Error("Configuration file watching error", "path", path, "error", err)
		},
	})
	return cw, nil
}

// Start begins watching. A stopped watcher cannot be restarted.
func (cw *ConfigWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running.CompareAndSwap(false, true) {
		return NewConfigWatcherError("watcher is already running", nil)
	}
	if err := cw.watcher.Watch(cw.path, cw.handleChange); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("failed to watch configuration file", err)
	}
	if err := cw.watcher.Start(); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("failed to start watcher", err)
	}

	cw.logger.Info("Configuration watcher started", "path", cw.path, "poll_interval", cw.options.PollInterval)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (cw *ConfigWatcher) Stop() error {
	var stopErr error
	cw.stopOnce.Do(func() {
		cw.mu.Lock()
		defer cw.mu.Unlock()

		if cw.running.CompareAndSwap(true, false) {
			if err := cw.watcher.Stop(); err != nil {
				stopErr = NewConfigWatcherError("failed to stop watcher", err)
			}
		}
		if cw.auditLogger != nil {
			if err := cw.auditLogger.Close(); err != nil {
				cw.logger.Warn("Failed to close audit logger", "error", err)
			}
		}
		cw.logger.Info("Configuration watcher stopped", "path", cw.path)
	})
	return stopErr
}

// IsRunning reports whether the watcher is active.
func (cw *ConfigWatcher) IsRunning() bool {
	return cw.running.Load()
}

// Reloads returns how many changes have been applied.
func (cw *ConfigWatcher) Reloads() int64 {
	return cw.reloads.Load()
}

func (cw *ConfigWatcher) handleChange(event argus.ChangeEvent) {
	defer withStackRecover(cw.logger)()

	if event.IsDelete {
		cw.logger.Warn("Configuration file deleted, keeping current settings", "path", event.Path)
		return
	}

	config, err := LoadConfigWithEnv(event.Path, cw.options.Env)
	if err != nil {
		cw.logger.Error("Failed to reload configuration", "path", event.Path, "error", err)
		cw.audit("pluginloader_config_reload_failed", map[string]interface{}{
			"path":  event.Path,
			"error": err.Error(),
		})
		return
	}

	changed := cw.apply(config)
	cw.reloads.Add(1)
	cw.logger.Info("Configuration reloaded", "path", event.Path, "changed", changed)
	cw.audit("pluginloader_config_reloaded", map[string]interface{}{
		"path":    event.Path,
		"changed": changed,
	})
}

// apply switches the system's frame events to match config and returns the
// events whose state changed.
func (cw *ConfigWatcher) apply(config Config) []string {
	var changed []string
	for _, event := range []LifecycleEvent{EventUpdate, EventDraw} {
		enabled := config.EventEnabled(event)
		if cw.system.EventEnabled(event) == enabled {
			continue
		}
		if err := cw.system.SetEventEnabled(event, enabled); err != nil {
			cw.logger.Warn("Cannot switch frame event", "event", string(event), "error", err)
			continue
		}
		changed = append(changed, string(event))
	}
	return changed
}

func (cw *ConfigWatcher) audit(eventType string, context map[string]interface{}) {
	if cw.auditLogger == nil {
		return
	}
	context["component"] = "pluginloader_config_watcher"
	context["pid"] = os.Getpid()
	cw.auditLogger.LogSecurityEvent(eventType, "Plugin loader configuration change", context)
}
