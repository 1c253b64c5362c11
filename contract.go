// contract.go: The plugin contract exposed to plugin authors
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

// GamePlugin is the contract every plugin instance satisfies.
//
// Initialize fires once, right after every module has been loaded. Put
// non-graphics loading here. Update fires on every frame. Both run on the
// host's frame goroutine and must not block.
type GamePlugin interface {
	Update()
	Initialize()
}

// Drawer is implemented by plugins that want the optional draw event.
type Drawer interface {
	Draw()
}

// DrawingPlugin is a GamePlugin that also takes the draw event.
//
// Script modules that draw must publish their plugins through
// ExportDrawingPlugin: the interpreter only gives an interpreted value the
// methods of the interface its constructor returns, so a script plugin
// returned as a plain GamePlugin never reaches OnFrameDraw.
type DrawingPlugin interface {
	GamePlugin
	Drawer
}

// BasePlugin provides no-op lifecycle methods so plugin types can embed it
// and override only what they need.
//
//	type Spinner struct {
//		pluginloader.BasePlugin
//		angle float64
//	}
//
//	func (s *Spinner) Update() { s.angle += 0.1 }
type BasePlugin struct{}

// Update implements GamePlugin.
func (BasePlugin) Update() {}

// Initialize implements GamePlugin.
func (BasePlugin) Initialize() {}

// Capability names a contract an export declares to implement.
type Capability string

// CapabilityGamePlugin is the declared capability the scanner selects on.
const CapabilityGamePlugin Capability = "pluginloader.GamePlugin"

// Export describes one constructible plugin type published by a module.
//
// A module publishes its exports under a fixed symbol (PluginExports by
// default):
//
//	var PluginExports = []pluginloader.Export{
//		pluginloader.ExportPlugin("spinner", func() pluginloader.GamePlugin { return &Spinner{} }),
//	}
//
// Only exports whose Capabilities contain CapabilityGamePlugin are
// activated. Declaring the capability is what makes an export a plugin, not
// the method set of whatever New happens to return.
type Export struct {
	Name         string
	Capabilities []Capability
	New          func() any
}

// Declares reports whether the export lists c among its capabilities.
func (e Export) Declares(c Capability) bool {
	for _, declared := range e.Capabilities {
		if declared == c {
			return true
		}
	}
	return false
}

// ExportPlugin builds an Export declaring CapabilityGamePlugin around a
// typed zero-argument constructor.
func ExportPlugin(name string, ctor func() GamePlugin) Export {
	export := Export{
		Name:         name,
		Capabilities: []Capability{CapabilityGamePlugin},
	}
	if ctor != nil {
		export.New = func() any {
			p := ctor()
			if p == nil {
				return nil
			}
			return p
		}
	}
	return export
}

// ExportDrawingPlugin is ExportPlugin for plugins that also implement Draw.
func ExportDrawingPlugin(name string, ctor func() DrawingPlugin) Export {
	if ctor == nil {
		return ExportPlugin(name, nil)
	}
	return ExportPlugin(name, func() GamePlugin {
		p := ctor()
		if p == nil {
			return nil
		}
		return p
	})
}
