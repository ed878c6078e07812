// Package pkg provides the core libraries for Linkforge image assembly.
//
// # Overview
//
// Linkforge assembles trimmed Java runtime images from a declarative
// distribution spec, resolving qualified module exports across the modules a
// distribution supplies and driving the runtime's own link tooling. The pkg
// directory is organized into these areas:
//
//  1. [module] - Module descriptor model (parsing, synthesis, rendering)
//  2. [jdk] - Source runtime handle (layout validation, inventory, probes)
//  3. [link] - Image linker (resolution, synthesis, jlink orchestration)
//  4. [registry] / [distspec] - Component catalog and spec loading
//  5. [run] / [cache] - External process and probe-cache infrastructure
//
// # Architecture
//
// The typical data flow through Linkforge:
//
//	Distribution Spec (TOML)
//	         ↓
//	    [distspec] package (load spec, populate registry)
//	         ↓
//	    [jdk] package (runtime inventory + capability probes)
//	         ↓
//	    [link] package (resolve exports, synthesize stubs, jlink)
//	         ↓
//	    Runtime Image (+ source bundle, static libs, startup cache)
//
// # Quick Start
//
//	reg := registry.New(nil)
//	spec, err := distspec.Load("linkforge.toml", reg)
//	if err != nil {
//	    return err
//	}
//	j, err := jdk.Open(spec.File.Runtime.Home, nil, nil)
//	if err != nil {
//	    return err
//	}
//	req := spec.Request()
//	req.JDK = j
//	report, err := link.New(nil, nil, nil).Run(ctx, req)
//
// Supporting packages: [errors] for coded errors, [observability] for step
// and tool hooks, [modgraph] for DOT/SVG rendering of the module universe,
// and [buildinfo] for version metadata.
package pkg
