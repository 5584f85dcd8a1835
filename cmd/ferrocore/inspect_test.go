package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ferrocore/ferrocore/internal/unit"
)

func testGraph(t *testing.T) *unit.Graph {
	t.Helper()
	leaf := unit.PackageId{Name: "leaf", Version: "1.0.0"}
	root := unit.PackageId{Name: "root", Version: "1.0.0"}
	packages := map[unit.PackageId]unit.ResolvedPackage{
		leaf: {
			Id:      leaf,
			Targets: []unit.Target{{Name: "leaf", Kind: unit.TargetLibrary, Crate: unit.CrateRlib, SrcPath: "leaf/src/lib.rs", IsLibOfPkg: true}},
		},
		root: {
			Id:                root,
			IsWorkspaceMember: true,
			Targets:           []unit.Target{{Name: "root", Kind: unit.TargetBinary, Crate: unit.CrateBin, SrcPath: "root/src/main.rs"}},
			Deps:              []unit.DepEdge{{To: leaf, Kind: unit.DepNormal, Public: true, ExternCrateName: "leaf"}},
		},
	}
	b := &unit.Builder{Packages: packages, Profile: unit.DebugProfile, Kind: unit.Host}
	g, err := b.Build(unit.TargetFilter{}, unit.Build)
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
	return g
}

func TestWriteUnitGraphJSON(t *testing.T) {
	g := testGraph(t)
	var buf bytes.Buffer
	if err := writeUnitGraphJSON(&buf, g); err != nil {
		t.Fatal(err)
	}
	var out unitGraphJSON
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out.Units) != 2 {
		t.Fatalf("got %d units, want 2", len(out.Units))
	}
}

func TestWriteBuildPlanJSON(t *testing.T) {
	g := testGraph(t)
	var buf bytes.Buffer
	if err := writeBuildPlanJSON(&buf, g); err != nil {
		t.Fatal(err)
	}
	var out buildPlanJSON
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out.Invocations) != 2 {
		t.Fatalf("got %d invocations, want 2", len(out.Invocations))
	}
}
