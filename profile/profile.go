package profile

import "slices"

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Profiler configures one profiling session.
//
// Mode selects a profile from [Modes]; an empty or unsupported Mode disables
// profiling. Path is the output directory, and Quiet suppresses the
// profiler's own start and stop messages.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling and returns a [Stopper] for ending it.
//
// If built without the pprof tag, or if p.Mode is unset or unsupported,
// Start returns a no-op. Both Start and Stop are always safely callable.
func (p Profiler) Start() Stopper {
	if p.Mode == "" || !slices.Contains(Modes(), p.Mode) {
		return ignore{}
	}

	return start(p.Mode, p.Path, p.Quiet)
}

// Enabled reports whether profiling support was compiled in.
func Enabled() bool { return len(Modes()) > 0 }

type ignore struct{}

func (ignore) Stop() {}
