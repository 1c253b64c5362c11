// activator.go: Construction of plugin instances from exports
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"reflect"
)

// Activator constructs plugin instances.
type Activator struct {
	logger Logger
}

// NewActivator creates an activator.
func NewActivator(logger Logger) *Activator {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &Activator{logger: logger}
}

// Activate calls the export's constructor and checks the result against
// GamePlugin. A panicking constructor, a nil result or a value that does not
// implement the contract is logged and returned as an error; nothing
// escapes.
func (a *Activator) Activate(m *Module, export Export) (*PluginHandle, error) {
	moduleID := ""
	if m != nil {
		moduleID = m.ID
	}

	a.logger.Info("Loading plugin", "plugin", export.Name, "module", moduleID)

	if export.New == nil {
		err := NewExportNoFactoryError(moduleID, export.Name)
		a.logger.Error("Failed to activate plugin", "plugin", export.Name, "module", moduleID, "error", err)
		return nil, err
	}

	var value any
	if p := safeCall(func() { value = export.New() }); p != nil {
		err := NewActivationPanicError(export.Name, moduleID, p.Value, p.Stack)
		a.logger.Error("Exception thrown while activating plugin",
			"plugin", export.Name,
			"module", moduleID,
			"error", err,
			"stack", string(p.Stack))
		return nil, err
	}

	if isNilValue(value) {
		err := NewActivationNilInstanceError(export.Name, moduleID)
		a.logger.Error("Failed to activate plugin", "plugin", export.Name, "module", moduleID, "error", err)
		return nil, err
	}

	plugin, ok := value.(GamePlugin)
	if !ok {
		err := NewActivationContractError(export.Name, moduleID, value)
		a.logger.Error("Failed to activate plugin", "plugin", export.Name, "module", moduleID, "error", err)
		return nil, err
	}

	a.logger.Info("Plugin loaded", "plugin", export.Name, "module", moduleID)
	return newPluginHandle(export.Name, m, plugin), nil
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
