package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ferrocore/ferrocore/internal/unit"
)

func TestLoadResolvedPackages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packages.json")
	const input = `[
		{
			"name": "leaf",
			"version": "1.0.0",
			"targets": [{"name": "leaf", "kind": "lib", "crate": "rlib", "src_path": "leaf/src/lib.rs"}]
		},
		{
			"name": "root",
			"version": "1.0.0",
			"workspace_member": true,
			"targets": [
				{"name": "root", "kind": "bin", "crate": "bin", "src_path": "root/src/main.rs"}
			],
			"deps": [{"to": "leaf-1.0.0(registry)", "extern_crate_name": "leaf", "public": true}]
		}
	]`
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}

	pkgs, err := loadResolvedPackages(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("got %d packages, want 2", len(pkgs))
	}
	root, ok := pkgs[unit.PackageId{Name: "root", Version: "1.0.0"}]
	if !ok {
		t.Fatal("root package not found")
	}
	if !root.IsWorkspaceMember {
		t.Error("root should be a workspace member")
	}
	if len(root.Deps) != 1 || root.Deps[0].ExternCrateName != "leaf" {
		t.Errorf("root.Deps = %+v", root.Deps)
	}
}

func TestLoadResolvedPackagesRejectsUnknownDep(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packages.json")
	const input = `[{"name": "root", "version": "1.0.0", "deps": [{"to": "missing-1.0.0(registry)"}]}]`
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadResolvedPackages(path); err == nil {
		t.Fatal("expected an error for a dependency referencing an unknown package id")
	}
}
