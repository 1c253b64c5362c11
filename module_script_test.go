// module_script_test.go: interpreted Go source module tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterScript = `package counter

import pluginloader "github.com/agilira/go-pluginloader"

var ModuleName = "counter"

var Updates int

type Counter struct{}

func (c *Counter) Initialize() {}

func (c *Counter) Update() { Updates++ }

type Helper struct{}

var PluginExports = []pluginloader.Export{
	pluginloader.ExportPlugin("Counter", func() pluginloader.GamePlugin { return &Counter{} }),
	{Name: "Helper", New: func() any { return &Helper{} }},
}
`

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestScriptOpener_Open(t *testing.T) {
	path := writeScript(t, t.TempDir(), "counter.go", counterScript)

	opener := NewScriptOpener("")
	assert.Equal(t, ModuleKindScript, opener.Kind())

	handle, err := opener.Open(path)
	require.NoError(t, err)

	m := NewModule(moduleIDFromPath(path), path, ModuleKindScript, handle)

	name, err := m.Lookup("ModuleName")
	require.NoError(t, err)
	assert.Equal(t, "counter", name)

	exports := NewScanner(DefaultExportSymbol, nil).Scan(m)
	require.Len(t, exports, 1)
	assert.Equal(t, "Counter", exports[0].Name)

	h, err := NewActivator(nil).Activate(m, exports[0])
	require.NoError(t, err)
	h.Plugin.Update()
	h.Plugin.Update()

	updates, err := m.Lookup("Updates")
	require.NoError(t, err)
	assert.Equal(t, 2, updates)

	_, err = m.Lookup("Missing")
	assert.True(t, HasErrorCode(err, ErrCodeSymbolNotFound))
}

func TestScriptOpener_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("SyntaxError", func(t *testing.T) {
		path := writeScript(t, dir, "broken.go", "package broken\n\nfunc {")
		_, err := NewScriptOpener("").Open(path)
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, ErrCodeScriptEvalFailed))
	})

	t.Run("TypeError", func(t *testing.T) {
		path := writeScript(t, dir, "typed.go", "package typed\n\nvar X int = \"text\"\n")
		_, err := NewScriptOpener("").Open(path)
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, ErrCodeScriptEvalFailed))
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := NewScriptOpener("").Open(filepath.Join(dir, "absent.go"))
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, ErrCodeModuleLoadFailed))
	})
}

func TestPluginSystem_ScriptModules(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Plugins")
	writeScript(t, filepath.Join(dir, "scripts"), "counter.go", counterScript)
	writeScript(t, dir, "broken.go", "package broken\n\nfunc {")

	ps, err := NewPluginSystem(Config{PluginsDir: dir, ScriptModules: true}, nil)
	require.NoError(t, err)
	defer ps.Shutdown()

	report := ps.OnStartup(context.Background())
	assert.Equal(t, 1, report.ModulesLoaded)
	assert.Equal(t, 1, report.ModulesFailed)
	assert.Equal(t, []string{"Counter"}, ps.Plugins())

	ps.OnFrameUpdate()
	ps.OnFrameUpdate()
	ps.OnFrameUpdate()

	m, ok := ps.Resolver().Resolve("counter")
	require.True(t, ok)
	assert.Equal(t, ModuleKindScript, m.Kind)

	updates, err := m.Lookup("Updates")
	require.NoError(t, err)
	assert.Equal(t, 3, updates)
}

const spriteScript = `package sprite

import pluginloader "github.com/agilira/go-pluginloader"

var Draws int

type Sprite struct{}

func (s *Sprite) Initialize() {}
func (s *Sprite) Update()     {}
func (s *Sprite) Draw()       { Draws++ }

type Still struct{}

func (s *Still) Initialize() {}
func (s *Still) Update()     {}

var PluginExports = []pluginloader.Export{
	pluginloader.ExportDrawingPlugin("Sprite", func() pluginloader.DrawingPlugin { return &Sprite{} }),
	pluginloader.ExportPlugin("Still", func() pluginloader.GamePlugin { return &Still{} }),
}
`

func TestPluginSystem_ScriptModuleDraw(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Plugins")
	writeScript(t, dir, "sprite.go", spriteScript)

	ps, err := NewPluginSystem(Config{PluginsDir: dir, ScriptModules: true}, nil)
	require.NoError(t, err)
	defer ps.Shutdown()

	ps.OnStartup(context.Background())
	require.Equal(t, []string{"Sprite", "Still"}, ps.Plugins())

	handles := ps.Handles()
	assert.True(t, handles[0].CanDraw())
	assert.False(t, handles[1].CanDraw())

	ps.OnFrameDraw()

	sprite, ok := ps.Stats().Plugin("Sprite")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sprite.DrawCalls)

	still, ok := ps.Stats().Plugin("Still")
	require.True(t, ok)
	assert.Zero(t, still.DrawCalls)

	m, ok := ps.Resolver().Resolve("sprite")
	require.True(t, ok)
	draws, err := m.Lookup("Draws")
	require.NoError(t, err)
	assert.Equal(t, 1, draws)
}
