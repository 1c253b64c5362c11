// module_native_unix.go: Go plugin loading on platforms that support it
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build linux || darwin || freebsd

package pluginloader

import (
	"plugin"
)

// NativeModuleExtension is the file extension of Go plugins on this platform.
const NativeModuleExtension = ".so"

type nativeHandle struct {
	plugin *plugin.Plugin
}

func (h *nativeHandle) Lookup(name string) (Symbol, error) {
	sym, err := h.plugin.Lookup(name)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

func openNative(path string) (ModuleHandle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &nativeHandle{plugin: p}, nil
}
