// system.go: Plugin system state machine and host entry points
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// SystemState is the lifecycle state of a PluginSystem.
type SystemState int32

const (
	StateUninitialized SystemState = iota
	StateLoading
	StateReady
	StateDispatching
	StateTerminal
)

// String implements fmt.Stringer.
func (s SystemState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDispatching:
		return "dispatching"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// activeSystem is the one PluginSystem allowed per process.
var activeSystem atomic.Pointer[PluginSystem]

// ActiveSystem returns the active plugin system, or nil.
func ActiveSystem() *PluginSystem {
	return activeSystem.Load()
}

// LoadReport summarizes a startup.
type LoadReport struct {
	ModulesLoaded      int                 `json:"modules_loaded"`
	ModulesFailed      int                 `json:"modules_failed"`
	UnresolvedRefs     int                 `json:"unresolved_refs"`
	ExportsMatched     int                 `json:"exports_matched"`
	ActivationsFailed  int                 `json:"activations_failed"`
	PluginsActive      int                 `json:"plugins_active"`
	InitializeFailures int                 `json:"initialize_failures"`
	Duration           time.Duration       `json:"duration"`
	Failures           []ModuleLoadFailure `json:"-"`
	ActivationErrors   []error             `json:"-"`
}

// Option configures a PluginSystem.
type Option func(*PluginSystem)

// WithMetrics sets the metrics collector. The default is an in-memory
// DefaultMetricsCollector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(ps *PluginSystem) {
		if metrics != nil {
			ps.metrics = metrics
		}
	}
}

// WithOpener registers opener for ext, replacing any built-in opener for the
// same extension. ext is added to the accepted extensions.
func WithOpener(ext string, opener ModuleOpener) Option {
	return func(ps *PluginSystem) {
		if opener == nil {
			return
		}
		ext = normalizeExtension(ext)
		ps.openers[ext] = opener
		for _, known := range ps.config.Extensions {
			if known == ext {
				return
			}
		}
		ps.config.Extensions = append(ps.config.Extensions, ext)
	}
}

// WithExportSymbol overrides Config.ExportSymbol.
func WithExportSymbol(symbol string) Option {
	return func(ps *PluginSystem) {
		if symbol != "" {
			ps.config.ExportSymbol = symbol
		}
	}
}

// PluginSystem loads plugins from the plugins directory at startup and
// drives their lifecycle from host events.
//
// Only one PluginSystem may be active per process: NewPluginSystem fails with
// SYSTEM_2501 while another system is active, and Shutdown releases the slot.
//
// Example usage:
//
//	ps, err := pluginloader.NewPluginSystem(pluginloader.DefaultConfig(), zapLogger)
//	if err != nil {
//	    return err
//	}
//	defer ps.Shutdown()
//
//	ps.OnStartup(ctx)
//	for range ticker.C {
//	    ps.OnFrameUpdate()
//	    ps.OnFrameDraw()
//	}
type PluginSystem struct {
	config  Config
	logger  Logger
	metrics MetricsCollector

	openers   map[string]ModuleOpener
	resolver  *ModuleResolver
	discovery *DiscoveryEngine
	scanner   *Scanner
	activator *Activator
	registry  *Registry
	stats     statsTracker

	state atomic.Int32

	eventsMu sync.RWMutex
	events   map[LifecycleEvent]bool
}

// NewPluginSystem validates config and creates the process plugin system.
// logger accepts anything NewLogger does.
func NewPluginSystem(config Config, logger any, opts ...Option) (*PluginSystem, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	log := NewLogger(logger)
	ps := &PluginSystem{
		config:   config,
		logger:   log,
		metrics:  NewDefaultMetricsCollector(),
		openers:  defaultOpeners(config),
		resolver: NewModuleResolver(log),
		registry: NewRegistry(),
		events:   make(map[LifecycleEvent]bool),
	}
	ps.config.Extensions = append([]string(nil), config.Extensions...)

	for _, opt := range opts {
		opt(ps)
	}

	for _, event := range []LifecycleEvent{EventUpdate, EventDraw} {
		ps.events[event] = ps.config.EventEnabled(event)
	}

	ps.discovery = NewDiscoveryEngine(ps.config, ps.openers, ps.resolver, ps.logger, ps.metrics)
	ps.scanner = NewScanner(ps.config.ExportSymbol, ps.logger)
	ps.activator = NewActivator(ps.logger)

	if !activeSystem.CompareAndSwap(nil, ps) {
		err := NewDuplicateSystemError()
		log.Error("Another plugin system is already active, refusing to start", "error", err)
		return nil, err
	}
	return ps, nil
}

func defaultOpeners(config Config) map[string]ModuleOpener {
	openers := map[string]ModuleOpener{
		NativeModuleExtension: NewNativeOpener(),
	}
	if config.ScriptModules {
		openers[ScriptModuleExtension] = NewScriptOpener(config.ScriptGoPath)
	}
	return openers
}

// OnStartup loads every plugin and fires initialize once across them.
//
// It only runs from the uninitialized state. Individual module, export and
// activation failures are logged and counted in the report; none of them
// fail the startup.
func (ps *PluginSystem) OnStartup(ctx context.Context) LoadReport {
	if !ps.state.CompareAndSwap(int32(StateUninitialized), int32(StateLoading)) {
		ps.logger.Warn("Startup ignored", "state", ps.State().String())
		return LoadReport{}
	}

	start := time.Now()
	report := ps.load(ctx)
	ps.registry.Seal()
	ps.stats.reset(ps.registry.Handles())
	ps.metrics.SetGauge(MetricPluginsActive, nil, float64(report.PluginsActive))

	if !ps.state.CompareAndSwap(int32(StateLoading), int32(StateReady)) {
		// Shutdown raced the load.
		report.Duration = time.Since(start)
		return report
	}

	ps.logger.Info("Plugins loaded",
		"modules", report.ModulesLoaded,
		"plugins", report.PluginsActive,
		"module_failures", report.ModulesFailed,
		"activation_failures", report.ActivationsFailed)

	result := ps.dispatch(EventInitialize)
	report.InitializeFailures = result.failures
	report.Duration = time.Since(start)
	return report
}

func (ps *PluginSystem) load(ctx context.Context) LoadReport {
	var report LoadReport

	for _, opener := range ps.openers {
		if aware, ok := opener.(ResolverAware); ok {
			aware.UseResolver(ps.resolver)
		}
	}

	modules := ps.discovery.Discover(ctx, ps.config.PluginsDir)
	report.ModulesLoaded = len(modules)
	report.Failures = ps.discovery.Failures()
	report.ModulesFailed = len(report.Failures)

	for _, m := range modules {
		if unresolved := ps.resolver.ResolveDependencies(m); len(unresolved) > 0 {
			report.UnresolvedRefs += len(unresolved)
			ps.metrics.IncrementCounter(MetricUnresolvedRequires,
				map[string]string{"module": m.ID}, int64(len(unresolved)))
		}
	}

	for _, m := range modules {
		for _, export := range ps.scanner.Scan(m) {
			report.ExportsMatched++

			h, err := ps.activator.Activate(m, export)
			if err == nil {
				err = ps.registry.Append(h)
			}
			if err != nil {
				report.ActivationsFailed++
				report.ActivationErrors = append(report.ActivationErrors, err)
				ps.metrics.IncrementCounter(MetricActivations,
					map[string]string{"result": "failed"}, 1)
				continue
			}
			ps.metrics.IncrementCounter(MetricActivations,
				map[string]string{"result": "ok"}, 1)
		}
	}

	report.PluginsActive = ps.registry.Len()
	return report
}

// OnFrameUpdate fires update across the registry when the update event is
// enabled and the system is ready.
func (ps *PluginSystem) OnFrameUpdate() {
	if !ps.EventEnabled(EventUpdate) {
		return
	}
	ps.dispatch(EventUpdate)
}

// OnFrameDraw fires draw across the plugins implementing Drawer when the
// draw event is enabled and the system is ready.
func (ps *PluginSystem) OnFrameDraw() {
	if !ps.EventEnabled(EventDraw) {
		return
	}
	ps.dispatch(EventDraw)
}

// EventEnabled reports whether event is currently dispatched.
func (ps *PluginSystem) EventEnabled(event LifecycleEvent) bool {
	if event == EventInitialize {
		return true
	}
	ps.eventsMu.RLock()
	defer ps.eventsMu.RUnlock()
	return ps.events[event]
}

// SetEventEnabled switches a frame event on or off. Initialize cannot be
// switched.
func (ps *PluginSystem) SetEventEnabled(event LifecycleEvent, enabled bool) error {
	if event != EventUpdate && event != EventDraw {
		return NewConfigValidationError(fmt.Sprintf("frame event %q cannot be toggled", event), nil).
			WithContext("event", string(event))
	}

	ps.eventsMu.Lock()
	changed := ps.events[event] != enabled
	ps.events[event] = enabled
	ps.eventsMu.Unlock()

	if changed {
		ps.logger.Info("Frame event toggled", "event", string(event), "enabled", enabled)
	}
	return nil
}

// Shutdown moves the system to its terminal state and releases the process
// slot. Loaded modules stay mapped. Calling Shutdown again is a no-op.
func (ps *PluginSystem) Shutdown() {
	prev := SystemState(ps.state.Swap(int32(StateTerminal)))
	if prev == StateTerminal {
		return
	}
	activeSystem.CompareAndSwap(ps, nil)
	ps.metrics.SetGauge(MetricPluginsActive, nil, 0)
	ps.logger.Info("Plugin system shut down", "previous_state", prev.String(), "plugins", ps.registry.Len())
}

// State returns the current state.
func (ps *PluginSystem) State() SystemState {
	return SystemState(ps.state.Load())
}

// Plugins returns the registered plugin names in dispatch order.
func (ps *PluginSystem) Plugins() []string {
	handles := ps.registry.Handles()
	names := make([]string, len(handles))
	for i, h := range handles {
		names[i] = h.Name
	}
	return names
}

// Handles returns the registered plugin handles in dispatch order.
func (ps *PluginSystem) Handles() []*PluginHandle {
	return ps.registry.Handles()
}

// Stats returns a snapshot of dispatch counters.
func (ps *PluginSystem) Stats() DispatchStats {
	return ps.stats.snapshot()
}

// Resolver returns the module resolver.
func (ps *PluginSystem) Resolver() *ModuleResolver {
	return ps.resolver
}

// Metrics returns the metrics collector.
func (ps *PluginSystem) Metrics() MetricsCollector {
	return ps.metrics
}

// Config returns the configuration the system was created with.
func (ps *PluginSystem) Config() Config {
	return ps.config
}
