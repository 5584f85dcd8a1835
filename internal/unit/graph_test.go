package unit

import "testing"

func libPkg(name, version string, deps ...DepEdge) ResolvedPackage {
	return ResolvedPackage{
		Id:                PackageId{Name: name, Version: version},
		IsWorkspaceMember: false,
		Targets: []Target{
			{Name: name, Kind: TargetLibrary, Crate: CrateLib, SrcPath: "src/lib.rs"},
		},
		Deps: deps,
	}
}

func rootPkg(name, version string, deps ...DepEdge) ResolvedPackage {
	p := libPkg(name, version, deps...)
	p.IsWorkspaceMember = true
	p.Targets = append(p.Targets, Target{Name: name, Kind: TargetBinary, Crate: CrateBin, SrcPath: "src/main.rs"})
	return p
}

func TestBuildSimple(t *testing.T) {
	a := PackageId{Name: "a", Version: "1.0.0"}
	bID := PackageId{Name: "b", Version: "1.0.0"}
	pkgs := map[PackageId]ResolvedPackage{
		a:    rootPkg("a", "1.0.0", DepEdge{To: bID, ExternCrateName: "b"}),
		bID:  libPkg("b", "1.0.0"),
	}
	builder := &Builder{Packages: pkgs, Profile: DebugProfile, Kind: Host}
	g, err := builder.Build(TargetFilter{}, Build)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Roots) == 0 {
		t.Fatal("expected at least one root unit")
	}
	if g.Interner.Len() < 2 {
		t.Fatalf("expected at least 2 interned units (a's bin + b's lib), got %d", g.Interner.Len())
	}
}

func TestBuildCycleDetected(t *testing.T) {
	a := PackageId{Name: "a", Version: "1.0.0"}
	bID := PackageId{Name: "b", Version: "1.0.0"}
	pkgs := map[PackageId]ResolvedPackage{
		a:   rootPkg("a", "1.0.0", DepEdge{To: bID, ExternCrateName: "b"}),
		bID: libPkg("b", "1.0.0", DepEdge{To: a, ExternCrateName: "a"}),
	}
	builder := &Builder{Packages: pkgs, Profile: DebugProfile, Kind: Host}
	if _, err := builder.Build(TargetFilter{}, Build); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	u1 := in.Intern(Unit{Package: PackageId{Name: "p", Version: "1.0.0"}, Target: Target{Name: "p"}, Mode: Build})
	u2 := in.Intern(Unit{Package: PackageId{Name: "p", Version: "1.0.0"}, Target: Target{Name: "p"}, Mode: Build})
	if u1 != u2 {
		t.Fatal("expected identical field values to intern to the same unit")
	}
	u3 := in.Intern(Unit{Package: PackageId{Name: "p", Version: "1.0.0"}, Target: Target{Name: "p"}, Mode: Test})
	if u1 == u3 {
		t.Fatal("expected different mode to intern to a different unit")
	}
}
