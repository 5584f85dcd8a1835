package unit

// CompileKind is Host or Target(triple) (spec.md §3). A single unit graph
// routinely contains both: build scripts and proc-macros/plugins always
// compile Host, even when the top-level build is not cross-compiling.
type CompileKind struct {
	// Target is the triple this unit's artifact runs on, empty for Host.
	Target string
}

// Host is the well-known CompileKind value meaning "runs on the machine
// running the orchestrator".
var Host = CompileKind{}

// IsHost reports whether k is the Host kind.
func (k CompileKind) IsHost() bool { return k.Target == "" }

func (k CompileKind) String() string {
	if k.IsHost() {
		return "host"
	}
	return k.Target
}

// ForTarget constructs a Target(triple) CompileKind.
func ForTarget(triple string) CompileKind { return CompileKind{Target: triple} }
