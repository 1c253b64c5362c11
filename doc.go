// Package pluginloader loads game plugins from a Plugins directory at startup
// and drives their lifecycle from the host's frame events.
//
// A host creates one PluginSystem, calls OnStartup once and then OnFrameUpdate
// (and OnFrameDraw) every frame. At startup the plugins directory is walked
// recursively; every file with a module extension is opened (Go plugins built
// with -buildmode=plugin, and optionally Go source interpreted by yaegi), its
// PluginExports list is scanned for exports declaring the GamePlugin
// capability, and each matching export is constructed. The resulting plugins
// are initialized once, in load order, and then updated every frame in the
// same order.
//
// Failures stay local. A module that does not load, an export that does not
// construct, or a plugin that panics during Initialize, Update or Draw is
// logged with its identity and skipped for that call only; the host never
// sees an error from OnStartup or the frame events, and a failing plugin is
// called again on the next frame.
//
// Writing a plugin:
//
//	package main
//
//	import "github.com/agilira/go-pluginloader"
//
//	type Spinner struct {
//		pluginloader.BasePlugin
//		angle float64
//	}
//
//	func (s *Spinner) Update() { s.angle += 0.1 }
//
//	var ModuleName = "spinner"
//
//	var PluginExports = []pluginloader.Export{
//		pluginloader.ExportPlugin("Spinner", func() pluginloader.GamePlugin { return &Spinner{} }),
//	}
//
// Build it with go build -buildmode=plugin -o Plugins/spinner.so and drive it
// from the host:
//
//	ps, err := pluginloader.NewPluginSystem(pluginloader.DefaultConfig(), logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ps.Shutdown()
//
//	report := ps.OnStartup(ctx)
//	log.Printf("%d plugins active", report.PluginsActive)
//	for range ticker.C {
//		ps.OnFrameUpdate()
//		ps.OnFrameDraw()
//	}
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package pluginloader
