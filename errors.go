// errors.go: structured error definitions for the plugin loader
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	stderrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for the plugin loader
const (
	// Module resolution and loading errors (2100-2199)
	ErrCodeModuleUnresolved   = "MODULE_2101"
	ErrCodeModuleLoadFailed   = "MODULE_2102"
	ErrCodeSymbolNotFound     = "MODULE_2103"
	ErrCodeNativeUnsupported  = "MODULE_2104"
	ErrCodeScriptEvalFailed   = "MODULE_2105"
	ErrCodeNoOpenerForFile    = "MODULE_2106"
	ErrCodePluginsDirFailure  = "MODULE_2107"
	ErrCodeModuleMetadataType = "MODULE_2108"

	// Export scanning errors (2200-2299)
	ErrCodeExportSymbolType = "SCAN_2201"
	ErrCodeExportNoFactory  = "SCAN_2202"
	ErrCodeExportPanic      = "SCAN_2203"

	// Activation errors (2300-2399)
	ErrCodeActivationPanic       = "ACTIVATION_2301"
	ErrCodeActivationNilInstance = "ACTIVATION_2302"
	ErrCodeActivationContract    = "ACTIVATION_2303"

	// Registry errors (2400-2499)
	ErrCodeRegistrySealed    = "REGISTRY_2401"
	ErrCodeRegistryNilHandle = "REGISTRY_2402"
	ErrCodeRegistryNilPlugin = "REGISTRY_2403"

	// System errors (2500-2599)
	ErrCodeDuplicateSystem = "SYSTEM_2501"

	// Lifecycle errors (2600-2699)
	ErrCodeLifecyclePanic = "LIFECYCLE_2601"

	// Configuration errors (2700-2799)
	ErrCodeConfigFileError       = "CONFIG_2701"
	ErrCodeConfigParseError      = "CONFIG_2702"
	ErrCodeConfigValidationError = "CONFIG_2703"
	ErrCodeConfigWatcherError    = "CONFIG_2704"
	ErrCodeInvalidLogLevel       = "CONFIG_2705"
)

// Module resolution and loading error constructors

func NewModuleUnresolvedError(id string) *errors.Error {
	return errors.New(ErrCodeModuleUnresolved, "Module reference could not be resolved").
		WithUserMessage("No loaded module matches the requested identity").
		WithContext("module", id).
		WithSeverity("warning")
}

func NewModuleLoadError(path string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeModuleLoadFailed, "Module load failed").
		WithUserMessage("The module file could not be loaded and was skipped").
		WithContext("path", path).
		WithSeverity("error")
}

func NewSymbolNotFoundError(module, symbol string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeSymbolNotFound, "Symbol not found").
		WithUserMessage("The module does not export the requested symbol").
		WithContext("module", module).
		WithContext("symbol", symbol).
		WithSeverity("warning")
}

func NewNativeUnsupportedError(path string) *errors.Error {
	return errors.New(ErrCodeNativeUnsupported, "Native modules are not supported on this platform").
		WithUserMessage("Go plugins can only be opened on linux, darwin and freebsd").
		WithContext("path", path).
		WithSeverity("error")
}

func NewScriptEvalError(path string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeScriptEvalFailed, "Script module evaluation failed").
		WithUserMessage("The script module could not be interpreted").
		WithContext("path", path).
		WithSeverity("error")
}

func NewNoOpenerError(path, extension string) *errors.Error {
	return errors.New(ErrCodeNoOpenerForFile, "No module opener for file extension").
		WithUserMessage("The file extension is accepted but no opener handles it").
		WithContext("path", path).
		WithContext("extension", extension).
		WithSeverity("error")
}

func NewPluginsDirError(dir string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodePluginsDirFailure, "Plugins directory unavailable").
		WithUserMessage("The plugins directory could not be created or read").
		WithContext("path", dir).
		WithSeverity("warning")
}

func NewModuleMetadataTypeError(module, symbol string, got any) *errors.Error {
	return errors.New(ErrCodeModuleMetadataType, "Module metadata symbol has an unexpected type").
		WithUserMessage("The module metadata export was ignored").
		WithContext("module", module).
		WithContext("symbol", symbol).
		WithContext("type", fmt.Sprintf("%T", got)).
		WithSeverity("warning")
}

// Export scanning error constructors

func NewExportSymbolTypeError(module, symbol string, got any) *errors.Error {
	return errors.New(ErrCodeExportSymbolType, "Export symbol has an unexpected type").
		WithUserMessage("The plugin export list must be []Export, *[]Export or func() []Export").
		WithContext("module", module).
		WithContext("symbol", symbol).
		WithContext("type", fmt.Sprintf("%T", got)).
		WithSeverity("error")
}

func NewExportNoFactoryError(module, export string) *errors.Error {
	return errors.New(ErrCodeExportNoFactory, "Export has no constructor").
		WithUserMessage("A plugin export must provide a constructor").
		WithContext("module", module).
		WithContext("export", export).
		WithSeverity("error")
}

func NewExportPanicError(module string, recovered any) *errors.Error {
	return errors.New(ErrCodeExportPanic, "Export list function panicked").
		WithUserMessage("The module export list could not be produced").
		WithContext("module", module).
		WithContext("panic", fmt.Sprint(recovered)).
		WithSeverity("error")
}

// Activation error constructors

func NewActivationPanicError(export, module string, recovered any, stack []byte) *errors.Error {
	return errors.New(ErrCodeActivationPanic, "Plugin constructor panicked").
		WithUserMessage("The plugin could not be constructed").
		WithContext("plugin", export).
		WithContext("module", module).
		WithContext("panic", fmt.Sprint(recovered)).
		WithContext("stack", string(stack)).
		WithSeverity("error")
}

func NewActivationNilInstanceError(export, module string) *errors.Error {
	return errors.New(ErrCodeActivationNilInstance, "Plugin constructor returned nil").
		WithUserMessage("The plugin constructor produced no instance").
		WithContext("plugin", export).
		WithContext("module", module).
		WithSeverity("error")
}

func NewActivationContractError(export, module string, got any) *errors.Error {
	return errors.New(ErrCodeActivationContract, "Constructed value does not implement GamePlugin").
		WithUserMessage("The plugin instance does not satisfy the plugin contract").
		WithContext("plugin", export).
		WithContext("module", module).
		WithContext("type", fmt.Sprintf("%T", got)).
		WithSeverity("error")
}

// Registry error constructors

func NewRegistrySealedError(name string) *errors.Error {
	return errors.New(ErrCodeRegistrySealed, "Registry is sealed").
		WithUserMessage("Plugins can only be registered during startup").
		WithContext("plugin", name).
		WithSeverity("error")
}

func NewRegistryNilHandleError() *errors.Error {
	return errors.New(ErrCodeRegistryNilHandle, "Nil plugin handle").
		WithUserMessage("A nil plugin handle cannot be registered").
		WithSeverity("error")
}

func NewRegistryNilPluginError(name string) *errors.Error {
	return errors.New(ErrCodeRegistryNilPlugin, "Plugin handle without instance").
		WithUserMessage("A plugin handle must carry a constructed instance").
		WithContext("plugin", name).
		WithSeverity("error")
}

// System error constructors

func NewDuplicateSystemError() *errors.Error {
	return errors.New(ErrCodeDuplicateSystem, "A plugin system is already active").
		WithUserMessage("Only one plugin system may be active per process; shut down the existing one first").
		WithSeverity("error")
}

// Lifecycle error constructors

func NewLifecyclePanicError(event LifecycleEvent, plugin, module string, recovered any, stack []byte) *errors.Error {
	return errors.New(ErrCodeLifecyclePanic, "Plugin lifecycle call panicked").
		WithUserMessage("The plugin failed during a lifecycle event; dispatch continued").
		WithContext("event", string(event)).
		WithContext("plugin", plugin).
		WithContext("module", module).
		WithContext("panic", fmt.Sprint(recovered)).
		WithContext("stack", string(stack)).
		WithSeverity("error")
}

// Configuration error constructors

func NewConfigFileError(path string, message string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeConfigFileError, "Configuration file error: "+message).
		WithUserMessage("Failed to access configuration file").
		WithContext("path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeConfigWatcherError, "Configuration watcher error: "+message).
		WithUserMessage("Configuration watcher operation failed").
		WithSeverity("error")
}

func NewInvalidLogLevelError(level string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeInvalidLogLevel, "Invalid log level").
		WithUserMessage("Log level must be one of debug, info, warn, error").
		WithContext("level", level).
		WithSeverity("error")
}

// wrapOrNew wraps cause when present; go-errors requires a non-nil cause for Wrap.
func wrapOrNew(cause error, code errors.ErrorCode, message string) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, code, message)
	}
	return errors.New(code, message)
}

// HasErrorCode reports whether err is, or wraps, a structured error carrying code.
func HasErrorCode(err error, code errors.ErrorCode) bool {
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		return structured.Code == code
	}
	return false
}
