// symbols.go: Package symbols exported to yaegi script modules
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"reflect"

	"github.com/traefik/yaegi/interp"
)

// ImportPath is the import path script modules use for this package.
const ImportPath = "github.com/agilira/go-pluginloader"

// Symbols is the yaegi export table for this package. Keys follow the
// interpreter's "importpath/pkgname" convention; the underscore entries are
// the wrappers that let interpreted types satisfy compiled interfaces.
var Symbols = interp.Exports{
	ImportPath + "/pluginloader": {
		"BasePlugin":           reflect.ValueOf((*BasePlugin)(nil)),
		"Capability":           reflect.ValueOf((*Capability)(nil)),
		"CapabilityGamePlugin": reflect.ValueOf(CapabilityGamePlugin),
		"Drawer":               reflect.ValueOf((*Drawer)(nil)),
		"DrawingPlugin":        reflect.ValueOf((*DrawingPlugin)(nil)),
		"Export":               reflect.ValueOf((*Export)(nil)),
		"ExportDrawingPlugin":  reflect.ValueOf(ExportDrawingPlugin),
		"ExportPlugin":         reflect.ValueOf(ExportPlugin),
		"GamePlugin":           reflect.ValueOf((*GamePlugin)(nil)),

		"_Drawer":        reflect.ValueOf((*_pluginloader_Drawer)(nil)),
		"_DrawingPlugin": reflect.ValueOf((*_pluginloader_DrawingPlugin)(nil)),
		"_GamePlugin":    reflect.ValueOf((*_pluginloader_GamePlugin)(nil)),
	},
}

// _pluginloader_Drawer is an interface wrapper for Drawer type
type _pluginloader_Drawer struct {
	IValue interface{}
	WDraw  func()
}

func (W _pluginloader_Drawer) Draw() { W.WDraw() }

// _pluginloader_DrawingPlugin is an interface wrapper for DrawingPlugin type
type _pluginloader_DrawingPlugin struct {
	IValue      interface{}
	WDraw       func()
	WInitialize func()
	WUpdate     func()
}

func (W _pluginloader_DrawingPlugin) Draw()       { W.WDraw() }
func (W _pluginloader_DrawingPlugin) Initialize() { W.WInitialize() }
func (W _pluginloader_DrawingPlugin) Update()     { W.WUpdate() }

// _pluginloader_GamePlugin is an interface wrapper for GamePlugin type
type _pluginloader_GamePlugin struct {
	IValue      interface{}
	WInitialize func()
	WUpdate     func()
}

func (W _pluginloader_GamePlugin) Initialize() { W.WInitialize() }
func (W _pluginloader_GamePlugin) Update()     { W.WUpdate() }
