// module_native.go: Go plugin (shared object) module opener
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

// NativeOpener opens Go plugins built with -buildmode=plugin.
//
// The Go runtime never unloads a plugin; opening the same path again returns
// the plugin already mapped.
type NativeOpener struct{}

// NewNativeOpener creates a native opener.
func NewNativeOpener() *NativeOpener {
	return &NativeOpener{}
}

// Kind implements ModuleOpener.
func (o *NativeOpener) Kind() ModuleKind {
	return ModuleKindNative
}

// Open implements ModuleOpener.
func (o *NativeOpener) Open(path string) (ModuleHandle, error) {
	handle, err := openNative(path)
	if err != nil {
		return nil, NewModuleLoadError(path, err)
	}
	return handle, nil
}
