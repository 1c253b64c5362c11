// logging_zap.go: Logger adapter for go.uber.org/zap
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter implements Logger on top of a zap sugared logger.
//
// Example usage:
//
//	zl, _ := zap.NewDevelopment()
//	system, err := pluginloader.NewPluginSystem(config, pluginloader.NewZapAdapter(zl))
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter wraps a zap logger. A nil logger yields a no-op zap logger.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{sugar: logger.Sugar()}
}

// NewZapLogger builds a production zap logger at the given level
// ("debug", "info", "warn", "error") and wraps it.
func NewZapLogger(level string) (*ZapAdapter, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, NewInvalidLogLevelError(level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapAdapter(logger), nil
}

func (z *ZapAdapter) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }
func (z *ZapAdapter) Info(msg string, args ...any)  { z.sugar.Infow(msg, args...) }
func (z *ZapAdapter) Warn(msg string, args ...any)  { z.sugar.Warnw(msg, args...) }
func (z *ZapAdapter) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

// With implements Logger.
func (z *ZapAdapter) With(args ...any) Logger {
	return &ZapAdapter{sugar: z.sugar.With(args...)}
}

// Sync flushes buffered entries.
func (z *ZapAdapter) Sync() error {
	return z.sugar.Sync()
}
