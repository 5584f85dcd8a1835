package main

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/ferrocore/ferrocore/internal/unit"
)

// unitGraphJSON / buildPlanJSON mirror spec.md §6's "unit-graph" and
// "build-plan" JSON dumps: inspection formats that let an external caller
// see what would run without actually running it.
type unitGraphJSON struct {
	Version int              `json:"version"`
	Units   []unitGraphEntry `json:"units"`
}

type unitGraphEntry struct {
	PkgID    string   `json:"pkg_id"`
	Target   string   `json:"target"`
	Kind     string   `json:"target_kind"`
	Profile  string   `json:"profile"`
	Mode     string   `json:"mode"`
	CompileKind string `json:"compile_kind"`
	Features []string `json:"features"`
	Deps     []int    `json:"dependencies"` // indices into Units
}

func writeUnitGraphJSON(w io.Writer, g *unit.Graph) error {
	all := g.Interner.All()
	index := make(map[*unit.Unit]int, len(all))
	sort.Slice(all, func(i, j int) bool { return all[i].String() < all[j].String() })
	for i, u := range all {
		index[u] = i
	}

	out := unitGraphJSON{Version: 1}
	for _, u := range all {
		var deps []int
		for _, e := range g.Edges[u] {
			deps = append(deps, index[e.Dep])
		}
		sort.Ints(deps)
		out.Units = append(out.Units, unitGraphEntry{
			PkgID:       u.Package.String(),
			Target:      u.Target.Name,
			Kind:        u.Target.Kind.String(),
			Profile:     string(u.Profile.Root),
			Mode:        u.Mode.String(),
			CompileKind: u.Kind.String(),
			Features:    u.Features,
			Deps:        deps,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type buildPlanJSON struct {
	Version     int               `json:"version"`
	Invocations []invocationEntry `json:"invocations"`
}

type invocationEntry struct {
	PackageName string   `json:"package_name"`
	Target      string   `json:"target"`
	Kind        string   `json:"kind"`
	Deps        []int    `json:"deps"`
	Outputs     []string `json:"outputs"`
}

// writeBuildPlanJSON emits invocations sorted by each unit's String() form.
// This is a stable order, not the scheduler's most-dependents-first dispatch
// order (internal/queue's Scheduler.order).
func writeBuildPlanJSON(w io.Writer, g *unit.Graph) error {
	all := g.Interner.All()
	sort.Slice(all, func(i, j int) bool { return all[i].String() < all[j].String() })
	index := make(map[*unit.Unit]int, len(all))
	for i, u := range all {
		index[u] = i
	}

	out := buildPlanJSON{Version: 1}
	for _, u := range all {
		var deps []int
		for _, e := range g.Edges[u] {
			deps = append(deps, index[e.Dep])
		}
		sort.Ints(deps)
		out.Invocations = append(out.Invocations, invocationEntry{
			PackageName: u.Package.Name,
			Target:      u.Target.Name,
			Kind:        u.Mode.String(),
			Deps:        deps,
			Outputs:     []string{u.Target.Name},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
