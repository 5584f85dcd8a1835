package unit

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph is the complete output of building the unit graph (spec.md §4.1):
// the set of root units plus the unit -> [dep edges] mapping closed under
// dependency.
type Graph struct {
	Interner *Interner
	Roots    []*Unit
	Edges    map[*Unit][]Edge
}

// Builder constructs a Graph from an already-resolved package set.
type Builder struct {
	Packages map[PackageId]ResolvedPackage
	Profile  Profile // the user-selected top-level profile before per-unit overrides
	Kind     CompileKind // the requested root compile kind
}

// partialKey identifies a pending unit before its dep_hash is known; two
// construction requests with the same partialKey share one pending node,
// which also gives dep_hash its correctness: identical subtrees fold to
// identical hashes because they are literally the same node (spec.md §9,
// "dep-hash disambiguation").
type partialKey struct {
	pkg        PackageId
	target     string
	targetKind TargetKind
	mode       Mode
	kind       CompileKind
	profile    Tuple
	features   string
	stdlib     bool
}

type pending struct {
	unit     Unit
	edges    []Edge
	visiting bool
	done     bool
	final    *Unit
}

type constructor struct {
	b        *Builder
	interner *Interner
	nodes    map[partialKey]*pending
	order    []*pending // post-order, for deterministic bottom-up dep_hash finalization
}

// Build runs the full unit-graph construction pipeline: select roots, close
// dependencies (including build-script units and the host/target split),
// detect cycles (invariant 1), compute dep_hash bottom-up, and intern.
func (b *Builder) Build(filter TargetFilter, mode Mode) (*Graph, error) {
	if err := b.checkLinksUniqueness(); err != nil {
		return nil, err
	}

	c := &constructor{b: b, interner: NewInterner(), nodes: make(map[partialKey]*pending)}

	var rootPkgs []PackageId
	for id, pkg := range b.Packages {
		if pkg.IsWorkspaceMember {
			rootPkgs = append(rootPkgs, id)
		}
	}
	sort.Slice(rootPkgs, func(i, j int) bool { return rootPkgs[i].Less(rootPkgs[j]) })

	var roots []*pending
	for _, id := range rootPkgs {
		pkg := b.Packages[id]
		targets, err := selectTargets(pkg, filter, mode)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			rm := refine(mode, t)
			kind := b.Kind
			if t.ForHost {
				kind = Host
			}
			p, err := c.construct(id, t, rm, kind)
			if err != nil {
				return nil, err
			}
			roots = append(roots, p)
		}
	}

	for _, p := range c.order {
		c.finalize(p)
	}

	g := &Graph{Interner: c.interner, Edges: make(map[*Unit][]Edge)}
	for _, p := range c.order {
		var edges []Edge
		for _, e := range p.edges {
			edges = append(edges, Edge{Unit: p.final, Dep: e.Dep, Public: e.Public, NoPrelude: e.NoPrelude, ExternCrateName: e.ExternCrateName})
		}
		g.Edges[p.final] = edges
	}
	for _, p := range roots {
		g.Roots = append(g.Roots, p.final)
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	return g, nil
}

func (b *Builder) checkLinksUniqueness() error {
	seen := make(map[string]PackageId)
	for id, pkg := range b.Packages {
		if pkg.Links == "" {
			continue
		}
		if other, ok := seen[pkg.Links]; ok {
			return graphErrorf("packages %s and %s both declare links = %q", other, id, pkg.Links)
		}
		seen[pkg.Links] = id
	}
	return nil
}

// construct returns the (possibly still-incomplete) pending node for the
// given unit identity, recursing into its dependencies. Cycle detection
// happens here via the visiting flag (invariant 1).
func (c *constructor) construct(pkgId PackageId, t Target, mode Mode, kind CompileKind) (*pending, error) {
	pkg := c.b.Packages[pkgId]
	features := pkg.sortedFeatures()
	profile := forUnit(c.b.Profile, kind, mode, t.Kind)

	pk := partialKey{pkg: pkgId, target: t.Name, targetKind: t.Kind, mode: mode, kind: kind, profile: profile.Tuple(), features: joinFeatures(features), stdlib: pkg.IsStdLib}
	if p, ok := c.nodes[pk]; ok {
		if p.visiting {
			return nil, graphErrorf("dependency cycle detected reaching %s/%s", pkgId, t.Name)
		}
		return p, nil
	}

	p := &pending{unit: Unit{
		Package: pkgId, Target: t, Profile: profile, Kind: kind, Mode: mode,
		Features: features, IsStdLib: pkg.IsStdLib,
	}}
	p.visiting = true
	c.nodes[pk] = p

	// Invariant 3: every compile unit of a package with a build script
	// depends on that package's RunBuildScript unit.
	if pkg.HasBuildScript && t.Kind != TargetBuildScript && mode != RunBuildScript {
		runDep, err := c.buildScriptRun(pkgId)
		if err != nil {
			return nil, err
		}
		p.edges = append(p.edges, pendingEdgeTo(runDep, false, true, ""))
	}

	for _, dep := range pkg.Deps {
		if dep.Kind == DepDev && mode != Test && mode != Bench && mode != Doctest {
			continue // dev-deps only matter when testing
		}
		depPkg, ok := c.b.Packages[dep.To]
		if !ok {
			return nil, graphErrorf("package %s depends on unresolved package %s", pkgId, dep.To)
		}
		lib, ok := libTarget(depPkg)
		if !ok {
			return nil, graphErrorf("package %s (dependency of %s) has no library target", dep.To, pkgId)
		}
		// Invariant 5 / host-target split: build deps, and anything only
		// reachable via a build/proc-macro edge, compile Host.
		depKind := kind
		if dep.Kind == DepBuild || lib.ForHost {
			depKind = Host
		}
		depMode := Build
		if depKind == Host {
			depMode = Build
		}
		depPending, err := c.construct(dep.To, lib, depMode, depKind)
		if err != nil {
			return nil, err
		}
		p.edges = append(p.edges, pendingEdgeTo(depPending, dep.Public, false, dep.ExternCrateName))
	}

	p.visiting = false
	c.order = append(c.order, p)
	return p, nil
}

// buildScriptRun returns the pending node for pkgId's RunBuildScript unit,
// itself depending on the unit that compiles the build-script binary
// (invariant 4).
func (c *constructor) buildScriptRun(pkgId PackageId) (*pending, error) {
	pkg := c.b.Packages[pkgId]
	var script Target
	found := false
	for _, t := range pkg.Targets {
		if t.Kind == TargetBuildScript {
			script = t
			found = true
			break
		}
	}
	if !found {
		return nil, graphErrorf("package %s declares a build script but has no build-script target", pkgId)
	}
	pk := partialKey{pkg: pkgId, target: script.Name, targetKind: TargetBuildScript, mode: RunBuildScript, kind: Host, profile: forUnit(c.b.Profile, Host, RunBuildScript, TargetBuildScript).Tuple(), features: joinFeatures(pkg.sortedFeatures()), stdlib: pkg.IsStdLib}
	if p, ok := c.nodes[pk]; ok {
		return p, nil
	}
	compile, err := c.construct(pkgId, script, Build, Host)
	if err != nil {
		return nil, err
	}
	run := &pending{unit: Unit{
		Package: pkgId, Target: script, Mode: RunBuildScript, Kind: Host,
		Profile: forUnit(c.b.Profile, Host, RunBuildScript, TargetBuildScript),
		Features: pkg.sortedFeatures(), IsStdLib: pkg.IsStdLib,
	}}
	run.edges = append(run.edges, pendingEdgeTo(compile, false, true, ""))
	c.nodes[pk] = run
	c.order = append(c.order, run)
	return run, nil
}

// pendingEdgeTo builds an Edge whose Dep is resolved to dep's final interned
// *Unit once dep is finalized (see finalize).
func pendingEdgeTo(dep *pending, public, noPrelude bool, name string) Edge {
	return Edge{Public: public, NoPrelude: noPrelude, ExternCrateName: name, pendingDep: dep}
}

func joinFeatures(f []string) string {
	out := ""
	for i, s := range f {
		if i > 0 {
			out += "\x00"
		}
		out += s
	}
	return out
}

func libTarget(pkg ResolvedPackage) (Target, bool) {
	for _, t := range pkg.Targets {
		if t.Kind == TargetLibrary {
			return t, true
		}
	}
	return Target{}, false
}

// finalize computes p's dep_hash from its (already-finalized, by
// construction order) dependencies' hashes and interns the unit.
func (c *constructor) finalize(p *pending) {
	if p.done {
		return
	}
	h := newDepHasher()
	for i := range p.edges {
		dep := p.edges[i].pendingDep
		h.add(dep.final.DepHash, dep.final.String())
		p.edges[i].Dep = dep.final
	}
	p.unit.DepHash = h.sum()
	p.final = c.interner.Intern(p.unit)
	p.done = true
}

// checkAcyclic re-validates acyclicity over the finished graph using gonum's
// topological sort, as a defense-in-depth check independent of the
// construction-time visiting-flag detection (invariant 1).
func (g *Graph) checkAcyclic() error {
	dg := simple.NewDirectedGraph()
	ids := make(map[*Unit]int64)
	nodesByID := make(map[int64]*Unit)
	var next int64
	idFor := func(u *Unit) int64 {
		if id, ok := ids[u]; ok {
			return id
		}
		ids[u] = next
		nodesByID[next] = u
		dg.AddNode(simpleNode(next))
		next++
		return ids[u]
	}
	for u, edges := range g.Edges {
		from := idFor(u)
		for _, e := range edges {
			to := idFor(e.Dep)
			dg.SetEdge(dg.NewEdge(simpleNode(from), simpleNode(to)))
		}
	}
	if _, err := topo.Sort(dg); err != nil {
		if uo, ok := err.(topo.Unorderable); ok {
			return graphErrorf("dependency cycle(s) detected: %d strongly-connected component(s)", len(uo))
		}
		return graphErrorf("%w", err)
	}
	return nil
}

type simpleNode int64

func (n simpleNode) ID() int64 { return int64(n) }

var _ graph.Node = simpleNode(0)
