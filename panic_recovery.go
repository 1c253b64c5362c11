// panic_recovery.go: Panic isolation for calls into plugin code
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"runtime"
)

// RecoveryHandler receives the recovered value and the goroutine stack.
type RecoveryHandler func(recovered any, stack []byte)

// PanicInfo describes a panic recovered from plugin code.
type PanicInfo struct {
	Value any
	Stack []byte
}

func captureStack() []byte {
	buf := make([]byte, 64<<10)
	n := runtime.Stack(buf, false)
	return buf[:n]
}

// safeCall runs fn and converts a panic into a PanicInfo. It returns nil
// when fn returned normally. Every call into module-provided code goes
// through here so a misbehaving plugin cannot unwind into the host.
func safeCall(fn func()) (info *PanicInfo) {
	defer func() {
		if r := recover(); r != nil {
			info = &PanicInfo{Value: r, Stack: captureStack()}
		}
	}()
	fn()
	return nil
}

// withStackRecover returns a deferred function that logs a panic with its
// stack instead of crashing. Used on goroutines the loader does not own,
// such as file watcher callbacks.
//
//	defer withStackRecover(logger)()
func withStackRecover(logger Logger) func() {
	return func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered in goroutine",
				"panic", r,
				"stack", string(captureStack()))
		}
	}
}

// withCustomRecoveryHandler is withStackRecover with a caller-supplied handler.
func withCustomRecoveryHandler(handler RecoveryHandler) func() {
	return func() {
		if r := recover(); r != nil {
			handler(r, captureStack())
		}
	}
}
