package mdz

import "runtime"

// Worker sizing constants.
const (
	MinWorkers = 1

	// MaxWorkers caps concurrent documents; each may start one renderer
	// subprocess per diagram.
	MaxWorkers = 8

	// cpuDivisor leaves headroom for renderer child processes.
	cpuDivisor = 2
)

// ResolveWorkers determines how many documents to render concurrently.
// An explicit positive value wins; otherwise half of GOMAXPROCS, clamped
// to [MinWorkers, MaxWorkers].
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
