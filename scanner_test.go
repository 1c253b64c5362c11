// scanner_test.go: declared-capability export scanning tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeModule(id string, symbols map[string]Symbol) *Module {
	return NewModule(id, "/plugins/"+id+fakeExt, "fake", &fakeHandle{symbols: symbols})
}

func exportNames(exports []Export) []string {
	names := make([]string, len(exports))
	for i, e := range exports {
		names[i] = e.Name
	}
	return names
}

func TestScanner_SelectsDeclaredExportsOnly(t *testing.T) {
	rec := &recorder{}
	logger := NewTestLogger()
	m := fakeModule("A", map[string]Symbol{
		DefaultExportSymbol: []Export{
			recordingExport("Foo", rec),
			{Name: "Bar", New: func() any { return &duckPlugin{} }},
			{Name: "Other", Capabilities: []Capability{"render.Pass"}, New: func() any { return &duckPlugin{} }},
		},
	})

	exports := NewScanner(DefaultExportSymbol, logger).Scan(m)

	assert.Equal(t, []string{"Foo"}, exportNames(exports))
	assert.Equal(t, 2, logger.Count("DEBUG", "Export does not declare the plugin contract"))
}

func TestScanner_PreservesExportOrder(t *testing.T) {
	rec := &recorder{}
	m := fakeModule("A", map[string]Symbol{
		DefaultExportSymbol: []Export{
			recordingExport("C", rec),
			recordingExport("A", rec),
			recordingExport("B", rec),
		},
	})

	exports := NewScanner("", nil).Scan(m)
	assert.Equal(t, []string{"C", "A", "B"}, exportNames(exports))
}

func TestScanner_SymbolShapes(t *testing.T) {
	rec := &recorder{}
	list := []Export{recordingExport("P", rec)}

	tests := []struct {
		name   string
		symbol Symbol
	}{
		{"Slice", list},
		{"Pointer", &list},
		{"Function", func() []Export { return list }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fakeModule("A", map[string]Symbol{DefaultExportSymbol: tt.symbol})
			exports := NewScanner(DefaultExportSymbol, nil).Scan(m)
			assert.Equal(t, []string{"P"}, exportNames(exports))
		})
	}
}

func TestScanner_RejectedSymbols(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		logger := NewTestLogger()
		exports := NewScanner(DefaultExportSymbol, logger).Scan(fakeModule("A", nil))
		assert.Empty(t, exports)
		assert.True(t, logger.HasMessage("DEBUG", "Module exports no plugins"))
	})

	t.Run("WrongType", func(t *testing.T) {
		logger := NewTestLogger()
		m := fakeModule("A", map[string]Symbol{DefaultExportSymbol: "not a list"})
		exports := NewScanner(DefaultExportSymbol, logger).Scan(m)
		assert.Empty(t, exports)

		msg, ok := logger.Find("Cannot read module exports")
		require.True(t, ok)
		errArg, _ := msg.Arg("error")
		err, isErr := errArg.(error)
		require.True(t, isErr)
		assert.True(t, HasErrorCode(err, ErrCodeExportSymbolType))
	})

	t.Run("PanickingFunction", func(t *testing.T) {
		logger := NewTestLogger()
		m := fakeModule("A", map[string]Symbol{
			DefaultExportSymbol: func() []Export { panic("init order") },
		})

		var exports []Export
		require.NotPanics(t, func() {
			exports = NewScanner(DefaultExportSymbol, logger).Scan(m)
		})
		assert.Empty(t, exports)

		msg, ok := logger.Find("Cannot read module exports")
		require.True(t, ok)
		errArg, _ := msg.Arg("error")
		err, isErr := errArg.(error)
		require.True(t, isErr)
		assert.True(t, HasErrorCode(err, ErrCodeExportPanic))
	})

	t.Run("NilPointer", func(t *testing.T) {
		m := fakeModule("A", map[string]Symbol{DefaultExportSymbol: (*[]Export)(nil)})
		assert.Empty(t, NewScanner(DefaultExportSymbol, nil).Scan(m))
	})

	t.Run("DeclaredWithoutFactory", func(t *testing.T) {
		logger := NewTestLogger()
		m := fakeModule("A", map[string]Symbol{
			DefaultExportSymbol: []Export{ExportPlugin("Empty", nil)},
		})
		assert.Empty(t, NewScanner(DefaultExportSymbol, logger).Scan(m))
		assert.True(t, logger.HasMessage("ERROR", "Skipping plugin export"))
	})

	t.Run("NilModule", func(t *testing.T) {
		assert.Nil(t, NewScanner(DefaultExportSymbol, nil).Scan(nil))
	})
}

func TestExport_Declares(t *testing.T) {
	e := ExportPlugin("P", func() GamePlugin { return &BasePlugin{} })
	assert.True(t, e.Declares(CapabilityGamePlugin))
	assert.False(t, e.Declares("render.Pass"))
	require.NotNil(t, e.New)
	assert.IsType(t, &BasePlugin{}, e.New())

	nilCtor := ExportPlugin("Nil", func() GamePlugin { return nil })
	assert.Nil(t, nilCtor.New())
}
