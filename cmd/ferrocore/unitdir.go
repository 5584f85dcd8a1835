package main

import (
	"fmt"

	"github.com/ferrocore/ferrocore/internal/unit"
)

// unitDirName names a unit's fingerprint/build-script directory: package
// name, target kind, target name, and dep_hash disambiguate identical-looking
// subtrees the same way the interner's key does (internal/unit/unit.go).
func unitDirName(u *unit.Unit) string {
	return fmt.Sprintf("%s-%s-%s-%016x", u.Package.Name, u.Target.Kind, u.Target.Name, u.DepHash)
}

// pkgHash is the coarser per-package (not per-target) hash used for a
// build-script's own working directory, shared by every compile unit that
// depends on it (spec.md §4.5, "build/<pkg>-<hash>/").
func pkgHash(u *unit.Unit) string {
	return fmt.Sprintf("%s-%016x", u.Package.Name, u.DepHash)
}
