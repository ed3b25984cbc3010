// Package profile provides optional runtime profiling for the leaf command.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] behind the "pprof" build
// tag. Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op,
// so profiling costs nothing in regular builds.
//
//	go build -tags pprof .
//
// # Available Profiling Modes
//
// The following profiling modes are supported when built with the pprof tag:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Using File-Based Profiling
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles", Quiet: true}
//	defer p.Start().Stop()
//
// Profile files are written to Path with names matching the profiling mode
// (e.g., cpu.pprof, mem.pprof).
//
// # Command-Line Usage
//
// Rendering a large template set under the CPU profiler:
//
//	leaf --pprof-mode cpu --pprof-dir ./profiles render page
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// The default output directory is the pprof directory below the leaf cache
// directory, for example $XDG_CACHE_HOME/leaf/pprof.
//
// # HTTP-Based Profiling
//
// When built with the pprof tag, this package also imports [net/http/pprof],
// which registers handlers at /debug/pprof/ on [net/http.DefaultServeMux].
package profile
