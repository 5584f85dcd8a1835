// Package fingerprint decides whether a unit needs rebuilding and persists
// the record that makes that decision cheap next time (spec.md §4.2).
//
// The composed hash follows the teacher's Ctx.Digest (internal/build/build.go):
// fnv-128a over a deterministic byte serialization of the inputs that affect
// codegen. Local-input staleness is checked separately, exactly as spec.md
// §4.2 requires, so a fingerprint file can be reused across machines while
// mtimes stay host-local.
package fingerprint

import (
	"hash/fnv"
	"time"

	"github.com/ferrocore/ferrocore/internal/unit"
)

// ClockSkewTolerance is the window before the recorded invocation time in
// which a local input whose mtime is not older than the artifact is still
// treated as clock skew rather than as stale (spec.md §4.2 "Tie-breaks and
// edge cases"). An input at or after the invocation time is always stale.
const ClockSkewTolerance = 1500 * time.Millisecond

// Freshness is the outcome of Prepare.
type Freshness int

const (
	Fresh Freshness = iota
	Dirty
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "dirty"
}

// CompilerId pins down the toolchain identity that participates in the
// composed hash (spec.md §4.2: "compiler identity (version and host triple)").
type CompilerId struct {
	Version     string
	HostTriple  string
	CommitHash  string
}

// DepFingerprint is the (hash, name, public) tuple a dependent folds into
// its own composed hash (spec.md §4.2).
type DepFingerprint struct {
	Hash            [16]byte
	ExternCrateName string
	Public          bool
}

// Composed is the hash of everything that is knowable before the unit runs:
// the model says nothing here depends on what files happen to exist on
// disk, which is exactly what lets fingerprints be compared across a
// relocated or re-fetched target directory.
type Composed struct {
	Compiler     CompilerId
	Profile      unit.Tuple
	Features     []string
	CompileKind  string
	Mode         string
	Flags        []string
	Deps         []DepFingerprint
	EnvWatched   map[string]string // rerun-if-env-changed values, run units only
}

// Hash returns the fnv-128a digest of c's canonical serialization.
func (c Composed) Hash() [16]byte {
	h := fnv.New128a()
	writeComposed(h, c)
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeComposed(h interface{ Write([]byte) (int, error) }, c Composed) {
	ws := func(s string) { h.Write([]byte(s)); h.Write([]byte{0}) }
	ws("compiler")
	ws(c.Compiler.Version)
	ws(c.Compiler.HostTriple)
	ws(c.Compiler.CommitHash)
	ws("profile")
	ws(string(c.Profile.Root))
	ws(c.Profile.OptLevel)
	ws(boolStr(c.Profile.DebugInfo))
	ws(boolStr(c.Profile.DebugAssertions))
	ws(boolStr(c.Profile.OverflowChecks))
	ws(c.Profile.LTO)
	ws(intStr(c.Profile.CodegenUnits))
	ws(string(c.Profile.Panic))
	ws(boolStr(c.Profile.RPath))
	ws("features")
	for _, f := range c.Features {
		ws(f)
	}
	ws("kind")
	ws(c.CompileKind)
	ws("mode")
	ws(c.Mode)
	ws("flags")
	for _, f := range c.Flags {
		ws(f)
	}
	ws("deps")
	for _, d := range c.Deps {
		h.Write(d.Hash[:])
		ws(d.ExternCrateName)
		ws(boolStr(d.Public))
	}
	ws("env")
	for _, k := range sortedKeys(c.EnvWatched) {
		ws(k)
		ws(c.EnvWatched[k])
	}
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func intStr(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// insertion sort: these maps are always small (env-watch lists)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
