// main.go: Reference host driving a PluginSystem from a fixed frame clock
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	pluginloader "github.com/agilira/go-pluginloader"
)

// maxFPS keeps the frame interval well above the ticker's resolution.
const maxFPS = 1000

type hostOptions struct {
	configPath  string
	pluginsDir  string
	logLevel    string
	metricsAddr string
	frames      int
	fps         int
	scripts     bool
	watch       bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &hostOptions{}

	cmd := &cobra.Command{
		Use:   "plugin-host",
		Short: "Load game plugins and drive them from a fixed frame clock",
		Long: `plugin-host loads every plugin module under the plugins directory,
initializes the plugins once and then fires update and draw at a fixed rate
until the frame budget is spent or the process is interrupted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (yaml, json, toml, ...)")
	flags.StringVarP(&opts.pluginsDir, "plugins-dir", "d", "", "plugins directory (overrides the configuration)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.IntVarP(&opts.frames, "frames", "n", 0, "number of frames to run, 0 runs until interrupted")
	flags.IntVar(&opts.fps, "fps", 60, fmt.Sprintf("frames per second, 1 to %d", maxFPS))
	flags.BoolVar(&opts.scripts, "scripts", false, "also load Go source plugins through the interpreter")
	flags.BoolVar(&opts.watch, "watch", false, "apply event changes from the configuration file while running")

	return cmd
}

func loadHostConfig(opts *hostOptions) (pluginloader.Config, error) {
	config := pluginloader.Config{}
	if opts.configPath != "" {
		loaded, err := pluginloader.LoadConfig(opts.configPath)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	if opts.pluginsDir != "" {
		config.PluginsDir = opts.pluginsDir
	}
	if opts.logLevel != "" {
		config.LogLevel = opts.logLevel
	}
	if opts.scripts && !config.ScriptModules {
		config.ScriptModules = true
		if len(config.Extensions) > 0 {
			config.Extensions = append(config.Extensions, pluginloader.ScriptModuleExtension)
		}
	}

	config.ApplyDefaults()
	return config, config.Validate()
}

func run(ctx context.Context, opts *hostOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.fps <= 0 || opts.fps > maxFPS {
		return fmt.Errorf("fps must be between 1 and %d, got %d", maxFPS, opts.fps)
	}

	config, err := loadHostConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return err
	}

	logger, err := pluginloader.NewZapLogger(config.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pluginloader.NewPrometheusMetricsCollector(registry, "")

	if opts.metricsAddr != "" {
		server := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "addr", opts.metricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		logger.Info("Serving metrics", "addr", opts.metricsAddr)
	}

	ps, err := pluginloader.NewPluginSystem(config, logger, pluginloader.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer ps.Shutdown()

	if shouldWatch(opts, logger) {
		watchOptions := pluginloader.DefaultConfigWatcherOptions()
		watcher, err := pluginloader.NewConfigWatcher(ps, opts.configPath, watchOptions)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	report := ps.OnStartup(ctx)
	logger.Info("Startup complete",
		"plugins", ps.Plugins(),
		"modules_failed", report.ModulesFailed,
		"activations_failed", report.ActivationsFailed,
		"duration", report.Duration)

	runFrames(ctx, ps, opts.frames, opts.fps)

	stats, err := json.MarshalIndent(ps.Stats(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(stats))
	return nil
}

// shouldWatch reports whether a config watcher should run; --watch needs a
// configuration file.
func shouldWatch(opts *hostOptions, logger pluginloader.Logger) bool {
	if !opts.watch {
		return false
	}
	if opts.configPath == "" {
		logger.Warn("Ignoring --watch without --config, nothing to watch")
		return false
	}
	return true
}

// runFrames fires update then draw on every tick until frames have run or
// ctx is done. frames <= 0 runs until ctx is done.
func runFrames(ctx context.Context, ps *pluginloader.PluginSystem, frames, fps int) {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for frame := 0; frames <= 0 || frame < frames; frame++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ps.OnFrameUpdate()
			ps.OnFrameDraw()
		}
	}
}
