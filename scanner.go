// scanner.go: Selection of plugin exports from loaded modules
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

// DefaultExportSymbol is the symbol modules publish their exports under.
const DefaultExportSymbol = "PluginExports"

// Scanner selects the exports of a module that declare the plugin contract.
type Scanner struct {
	symbol string
	logger Logger
}

// NewScanner creates a scanner reading exports from symbol.
func NewScanner(symbol string, logger Logger) *Scanner {
	if symbol == "" {
		symbol = DefaultExportSymbol
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &Scanner{symbol: symbol, logger: logger}
}

// Scan returns the exports of m declaring CapabilityGamePlugin, in the
// order the module lists them. A module without the export symbol simply
// contributes no plugins.
func (s *Scanner) Scan(m *Module) []Export {
	if m == nil {
		return nil
	}

	sym, err := m.Lookup(s.symbol)
	if err != nil {
		s.logger.Debug("Module exports no plugins", "module", m.ID, "symbol", s.symbol)
		return nil
	}

	exports, err := s.exportList(m, sym)
	if err != nil {
		s.logger.Error("Cannot read module exports", "module", m.ID, "path", m.Path, "error", err)
		return nil
	}

	selected := make([]Export, 0, len(exports))
	for _, export := range exports {
		if !export.Declares(CapabilityGamePlugin) {
			s.logger.Debug("Export does not declare the plugin contract",
				"module", m.ID,
				"plugin", export.Name)
			continue
		}
		if export.New == nil {
			s.logger.Error("Skipping plugin export",
				"module", m.ID,
				"plugin", export.Name,
				"error", NewExportNoFactoryError(m.ID, export.Name))
			continue
		}
		selected = append(selected, export)
	}
	return selected
}

func (s *Scanner) exportList(m *Module, sym Symbol) ([]Export, error) {
	switch v := sym.(type) {
	case []Export:
		return v, nil
	case *[]Export:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case func() []Export:
		var exports []Export
		if p := safeCall(func() { exports = v() }); p != nil {
			return nil, NewExportPanicError(m.ID, p.Value).WithContext("stack", string(p.Stack))
		}
		return exports, nil
	default:
		return nil, NewExportSymbolTypeError(m.ID, s.symbol, sym)
	}
}
