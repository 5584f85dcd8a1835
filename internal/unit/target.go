package unit

// TargetKind enumerates the kinds of artifacts a package's manifest may
// describe (spec.md §3, "Target").
type TargetKind int

const (
	TargetLibrary TargetKind = iota
	TargetBinary
	TargetExample
	TargetIntegrationTest
	TargetBenchmark
	TargetBuildScript
	TargetDocumentationTest
)

func (k TargetKind) String() string {
	switch k {
	case TargetLibrary:
		return "lib"
	case TargetBinary:
		return "bin"
	case TargetExample:
		return "example"
	case TargetIntegrationTest:
		return "test"
	case TargetBenchmark:
		return "bench"
	case TargetBuildScript:
		return "build-script"
	case TargetDocumentationTest:
		return "doctest"
	default:
		return "unknown"
	}
}

// CrateKind is the artifact flavor the compiler is asked to emit for a
// target (spec.md §3: lib, rlib, dylib, cdylib, proc-macro, bin).
type CrateKind string

const (
	CrateLib       CrateKind = "lib"
	CrateRlib      CrateKind = "rlib"
	CrateDylib     CrateKind = "dylib"
	CrateCdylib    CrateKind = "cdylib"
	CrateProcMacro CrateKind = "proc-macro"
	CrateBin       CrateKind = "bin"
)

// Target describes one buildable artifact declared by a package.
type Target struct {
	Name string
	Kind TargetKind
	// Crate is the compiler artifact flavor; meaningless for non-library,
	// non-proc-macro kinds other than TargetBinary (CrateBin).
	Crate CrateKind
	// SrcPath is the entry-point source file, e.g. "src/main.rs".
	SrcPath string

	// RequiredFeatures lists features that must all be enabled for this
	// target to be included by the default filter (spec.md §4.1).
	RequiredFeatures []string

	Tested     bool // for an example: whether `Test` mode runs it or only builds it (mode.go)
	Benched    bool // recorded from the input; target selection does not consult it
	Doctested  bool // recorded from the input; target selection does not consult it
	ForHost    bool // plugin/proc-macro: always compiled with CompileKind::Host
	IsLibOfPkg bool // true for the package's own library target (for name dedup in docs)
}

// RequiredFeaturesCovered reports whether enabled covers every feature in
// t.RequiredFeatures.
func (t Target) RequiredFeaturesCovered(enabled map[string]bool) bool {
	for _, f := range t.RequiredFeatures {
		if !enabled[f] {
			return false
		}
	}
	return true
}
