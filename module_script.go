// module_script.go: Go source modules interpreted with yaegi
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptModuleExtension is the file extension of script modules.
const ScriptModuleExtension = ".go"

// ScriptOpener loads single-file Go source modules through the yaegi
// interpreter. It works on every platform, including those where package
// plugin is unavailable. Script modules may import the standard library
// and this package. Script plugins that draw are published with
// ExportDrawingPlugin.
//
//	package spinner
//
//	import "github.com/agilira/go-pluginloader"
//
//	type Spinner struct{ pluginloader.BasePlugin }
//
//	var PluginExports = []pluginloader.Export{
//		pluginloader.ExportPlugin("spinner", func() pluginloader.GamePlugin { return &Spinner{} }),
//	}
type ScriptOpener struct {
	goPath string
}

// NewScriptOpener creates a script opener. goPath, when set, lets script
// modules import packages vendored under it.
func NewScriptOpener(goPath string) *ScriptOpener {
	return &ScriptOpener{goPath: goPath}
}

// Kind implements ModuleOpener.
func (o *ScriptOpener) Kind() ModuleKind {
	return ModuleKindScript
}

// Open implements ModuleOpener.
func (o *ScriptOpener) Open(path string) (ModuleHandle, error) {
	src, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, NewModuleLoadError(path, err)
	}

	file, err := parser.ParseFile(token.NewFileSet(), path, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, NewScriptEvalError(path, err)
	}

	i := interp.New(interp.Options{GoPath: o.goPath})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, NewScriptEvalError(path, err)
	}
	if err := i.Use(Symbols); err != nil {
		return nil, NewScriptEvalError(path, err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, NewScriptEvalError(path, err)
	}

	return &scriptHandle{interp: i, pkg: file.Name.Name}, nil
}

type scriptHandle struct {
	mu     sync.Mutex
	interp *interp.Interpreter
	pkg    string
}

func (h *scriptHandle) Lookup(name string) (Symbol, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, err := h.interp.Eval(h.pkg + "." + name)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil, fmt.Errorf("symbol %s.%s has no usable value", h.pkg, name)
	}
	return v.Interface(), nil
}
