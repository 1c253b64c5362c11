// module_native_other.go: Go plugin loading stub for unsupported platforms
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build !linux && !darwin && !freebsd

package pluginloader

// NativeModuleExtension is the file extension accepted for native modules.
// Package plugin cannot open it here; candidates are reported and skipped.
const NativeModuleExtension = ".dll"

func openNative(path string) (ModuleHandle, error) {
	return nil, NewNativeUnsupportedError(path)
}
