package unit

import (
	"fmt"
	"sort"
	"strings"
)

// Unit is the node of the scheduling graph: one external-compiler invocation
// (spec.md §3). Two units are equal iff every field is equal; keyOf returns
// the comparable value the interner uses, which identifies Target by its
// name and kind.
type Unit struct {
	Package  PackageId
	Target   Target
	Profile  Profile
	Kind     CompileKind
	Mode     Mode
	Features []string // sorted, deduplicated
	IsStdLib bool
	DepHash  uint64 // see interner.go: finalized after dependency edges are known
}

// sortedFeatures returns a sorted copy of features with duplicates removed.
func sortedFeatures(features []string) []string {
	if len(features) == 0 {
		return nil
	}
	out := append([]string(nil), features...)
	sort.Strings(out)
	dedup := out[:0]
	var last string
	first := true
	for _, f := range out {
		if !first && f == last {
			continue
		}
		dedup = append(dedup, f)
		last = f
		first = false
	}
	return dedup
}

// key is the comparable tuple the interner deduplicates on. It includes
// DepHash, so a unit is interned only after graph.go's finalize pass has
// computed its DepHash bottom-up from its already-interned dependencies.
type key struct {
	pkg      PackageId
	target   string     // Target.Name; a lib and a bin may share it
	tkind    TargetKind // Target.Kind, which tells such a pair apart
	mode     Mode
	kind     CompileKind
	profile  Tuple
	features string // sortedFeatures joined by "\x00"
	stdlib   bool
	depHash  uint64
}

func keyOf(u *Unit) key {
	return key{
		pkg:      u.Package,
		target:   u.Target.Name,
		tkind:    u.Target.Kind,
		mode:     u.Mode,
		kind:     u.Kind,
		profile:  u.Profile.Tuple(),
		features: strings.Join(u.Features, "\x00"),
		stdlib:   u.IsStdLib,
		depHash:  u.DepHash,
	}
}

// Edge is a directed dependency edge unit -> dep (spec.md §3).
type Edge struct {
	Unit            *Unit
	Dep             *Unit
	Public          bool
	NoPrelude       bool
	ExternCrateName string

	// pendingDep is used only during graph construction (internal/unit's
	// own graph.go), before Dep's final interned pointer is known.
	pendingDep *pending
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s/%s[%s,%s,%s]", u.Package, u.Target.Name, u.Mode, u.Kind, u.Profile.Root)
}
