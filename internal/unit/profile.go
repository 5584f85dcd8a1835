package unit

// ProfileRoot names the two top-level user-selectable profiles; derived
// per-unit profiles still carry one of these as their Root tag so build
// scripts can report PROFILE correctly (spec.md §4.3, §8 resolved open
// question: PROFILE always reflects the unit's own derived profile, never
// the top-level requested one directly).
type ProfileRoot string

const (
	ProfileDebug   ProfileRoot = "debug"
	ProfileRelease ProfileRoot = "release"
)

// PanicStrategy is the unwind behavior requested for a unit.
type PanicStrategy string

const (
	PanicUnwind PanicStrategy = "unwind"
	PanicAbort  PanicStrategy = "abort"
)

// Profile bundles the compiler knobs that affect codegen and therefore the
// fingerprint (spec.md §3, "Profile").
type Profile struct {
	Root            ProfileRoot
	OptLevel        string // e.g. "0", "1", "2", "3", "s", "z"
	DebugInfo       bool
	DebugAssertions bool
	OverflowChecks  bool
	LTO             string // "off", "thin", "fat"
	CodegenUnits    int
	Panic           PanicStrategy
	RPath           bool
}

// DebugProfile and ReleaseProfile are the two built-in starting points a
// requested top-level profile resolves to before per-unit overrides apply.
var (
	DebugProfile = Profile{
		Root: ProfileDebug, OptLevel: "0", DebugInfo: true,
		DebugAssertions: true, OverflowChecks: true, LTO: "off",
		CodegenUnits: 256, Panic: PanicUnwind,
	}
	ReleaseProfile = Profile{
		Root: ProfileRelease, OptLevel: "3", DebugInfo: false,
		DebugAssertions: false, OverflowChecks: false, LTO: "off",
		CodegenUnits: 16, Panic: PanicUnwind,
	}
)

// forUnit derives the effective profile for a unit given the requested
// top-level profile and the unit's kind/mode, implementing the "unit-for"
// policy of spec.md §4.1: build scripts and host-compiled subtrees never
// inherit panic=abort, and tests/benches always strip panic-abort so a test
// binary can catch unwinds from the code under test.
func forUnit(requested Profile, kind CompileKind, mode Mode, targetKind TargetKind) Profile {
	p := requested
	if kind == Host || targetKind == TargetBuildScript ||
		mode == Test || mode == Bench || mode == Doctest {
		p.Panic = PanicUnwind
	}
	return p
}

// Tuple returns the fields that matter for fingerprint composition, as a
// stable, order-independent value usable as a map key.
type Tuple struct {
	Root            ProfileRoot
	OptLevel        string
	DebugInfo       bool
	DebugAssertions bool
	OverflowChecks  bool
	LTO             string
	CodegenUnits    int
	Panic           PanicStrategy
	RPath           bool
}

func (p Profile) Tuple() Tuple {
	return Tuple{
		Root: p.Root, OptLevel: p.OptLevel, DebugInfo: p.DebugInfo,
		DebugAssertions: p.DebugAssertions, OverflowChecks: p.OverflowChecks,
		LTO: p.LTO, CodegenUnits: p.CodegenUnits, Panic: p.Panic, RPath: p.RPath,
	}
}
