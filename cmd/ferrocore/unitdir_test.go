package main

import (
	"testing"

	"github.com/ferrocore/ferrocore/internal/unit"
)

func TestUnitDirNameDiffersByTarget(t *testing.T) {
	pkg := unit.PackageId{Name: "foo", Version: "1.0.0"}
	lib := &unit.Unit{Package: pkg, Target: unit.Target{Name: "foo", Kind: unit.TargetLibrary}, DepHash: 42}
	bin := &unit.Unit{Package: pkg, Target: unit.Target{Name: "foo", Kind: unit.TargetBinary}, DepHash: 42}
	if unitDirName(lib) == unitDirName(bin) {
		t.Fatalf("lib and bin units with the same name collided: %q", unitDirName(lib))
	}
}

func TestPkgHashStableForSamePackage(t *testing.T) {
	pkg := unit.PackageId{Name: "foo", Version: "1.0.0"}
	a := &unit.Unit{Package: pkg, Target: unit.Target{Name: "a"}, DepHash: 7}
	b := &unit.Unit{Package: pkg, Target: unit.Target{Name: "b"}, DepHash: 7}
	if pkgHash(a) != pkgHash(b) {
		t.Errorf("pkgHash should only depend on package+dep_hash, got %q vs %q", pkgHash(a), pkgHash(b))
	}
}
