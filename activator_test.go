// activator_test.go: plugin construction and contract re-check tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivator_Success(t *testing.T) {
	rec := &recorder{}
	logger := NewTestLogger()
	m := fakeModule("A", nil)

	h, err := NewActivator(logger).Activate(m, drawingExport("Foo", rec))

	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "Foo", h.Name)
	assert.Equal(t, "A", h.ModuleID())
	assert.Equal(t, -1, h.Index)
	assert.True(t, h.CanDraw())
	assert.Equal(t, "*pluginloader.drawingPlugin", h.TypeName())
	assert.True(t, logger.HasMessage("INFO", "Loading plugin"))
	assert.True(t, logger.HasMessage("INFO", "Plugin loaded"))
	assert.Empty(t, rec.Calls(), "activation does not call lifecycle methods")
}

func TestActivator_Failures(t *testing.T) {
	tests := []struct {
		name    string
		export  Export
		code    errors.ErrorCode
		message string
	}{
		{
			name:    "ConstructorPanics",
			export:  Export{Name: "Foo", New: func() any { panic("constructor failed") }},
			code:    ErrCodeActivationPanic,
			message: "Exception thrown while activating plugin",
		},
		{
			name:    "NilInstance",
			export:  Export{Name: "Foo", New: func() any { return nil }},
			code:    ErrCodeActivationNilInstance,
			message: "Failed to activate plugin",
		},
		{
			name:    "TypedNilInstance",
			export:  Export{Name: "Foo", New: func() any { return (*recordingPlugin)(nil) }},
			code:    ErrCodeActivationNilInstance,
			message: "Failed to activate plugin",
		},
		{
			name:    "NotAPlugin",
			export:  Export{Name: "Foo", New: func() any { return &notAPlugin{} }},
			code:    ErrCodeActivationContract,
			message: "Failed to activate plugin",
		},
		{
			name:    "NoFactory",
			export:  Export{Name: "Foo"},
			code:    ErrCodeExportNoFactory,
			message: "Failed to activate plugin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewTestLogger()

			var (
				h   *PluginHandle
				err error
			)
			require.NotPanics(t, func() {
				h, err = NewActivator(logger).Activate(fakeModule("A", nil), tt.export)
			})

			assert.Nil(t, h)
			require.Error(t, err)
			assert.True(t, HasErrorCode(err, tt.code), "got %v", err)
			assert.True(t, logger.HasMessage("ERROR", tt.message))

			msg, ok := logger.Find(tt.message)
			require.True(t, ok)
			plugin, _ := msg.Arg("plugin")
			assert.Equal(t, "Foo", plugin)
		})
	}
}

func TestActivator_NilModule(t *testing.T) {
	h, err := NewActivator(nil).Activate(nil, ExportPlugin("P", func() GamePlugin { return &BasePlugin{} }))
	require.NoError(t, err)
	assert.Empty(t, h.ModuleID())
	assert.False(t, h.CanDraw())
}

func TestExportDrawingPlugin(t *testing.T) {
	rec := &recorder{}
	export := ExportDrawingPlugin("Painter", func() DrawingPlugin {
		return &drawingPlugin{recordingPlugin: *newRecordingPlugin("Painter", rec)}
	})
	assert.True(t, export.Declares(CapabilityGamePlugin))

	h, err := NewActivator(nil).Activate(nil, export)
	require.NoError(t, err)
	require.True(t, h.CanDraw())
	h.call(EventDraw)()
	assert.Equal(t, []string{"Painter.draw"}, rec.Calls())

	_, err = NewActivator(nil).Activate(nil, ExportDrawingPlugin("Nil", func() DrawingPlugin { return nil }))
	assert.True(t, HasErrorCode(err, ErrCodeActivationNilInstance))

	assert.Nil(t, ExportDrawingPlugin("NoCtor", nil).New)
}
