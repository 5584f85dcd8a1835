// Package ferrocore contains the small set of types and helpers shared by
// every component of the build-orchestration core: unit graph construction,
// fingerprinting, the build-script runtime, and the job queue.
package ferrocore

// HostTriple is the triple of the machine running the orchestrator itself
// (as opposed to the triple units are being compiled for). It is injected by
// the driver rather than detected here, so that cross-building for the host
// triple remains testable without touching the real host.
type HostTriple string

// String returns the triple unchanged, e.g. "x86_64-unknown-linux-gnu". It
// satisfies fmt.Stringer so HostTriple values format the same way whether a
// caller holds the named type or a plain string.
func (t HostTriple) String() string { return string(t) }
