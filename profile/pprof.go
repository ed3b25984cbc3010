//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

// profiles maps each mode name to the pkg/profile option selecting it.
var profiles = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes returns the sorted profiling modes supported by this build.
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(profiles))
})

// start begins a session for a mode known to be in profiles. The CLI stops
// the session itself when its context ends, so the interrupt hook installed
// by pkg/profile is disabled.
func start(mode, path string, quiet bool) Stopper {
	opts := []func(*profile.Profile){profiles[mode], profile.NoShutdownHook}

	if path != "" {
		opts = append(opts, profile.ProfilePath(path))
	}

	if quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}
