package unit

import "golang.org/x/mod/semver"

// lessVersion compares two version strings using semver ordering when both
// are valid semver (optionally missing the "v" prefix cargo-style version
// numbers omit), reporting ok=false when either fails to parse so callers
// fall back to lexicographic order. Generalizes the teacher's filename-suffix
// PackageVersion/ParseVersion (version.go) into a structured comparison that
// does not assume a distri-specific "<pkg>-<arch>-<version>-<rev>" filename.
func lessVersion(a, b string) (less bool, ok bool) {
	va, oka := canonicalSemver(a)
	vb, okb := canonicalSemver(b)
	if !oka || !okb {
		return false, false
	}
	return semver.Compare(va, vb) < 0, true
}

func canonicalSemver(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}
