// Package layout computes the on-disk artifact tree (spec.md §4.5,
// "Filesystem layout (bit-exact conventions)") and implements the
// hardlink-then-copy linker step that populates it.
package layout

import "path/filepath"

// Layout resolves the conventional paths under one target directory for
// one (profile, optional cross-compile triple) pair.
type Layout struct {
	TargetDir string
	Profile   string // "debug" or "release"
	Triple    string // "" for the host target
}

// Root is <target_dir>/<triple>/<profile>, or <target_dir>/<profile> when
// not cross-compiling.
func (l Layout) Root() string {
	if l.Triple == "" {
		return filepath.Join(l.TargetDir, l.Profile)
	}
	return filepath.Join(l.TargetDir, l.Triple, l.Profile)
}

func (l Layout) Deps() string        { return filepath.Join(l.Root(), "deps") }
func (l Layout) Examples() string    { return filepath.Join(l.Root(), "examples") }
func (l Layout) Build() string       { return filepath.Join(l.Root(), "build") }
func (l Layout) Fingerprint() string { return filepath.Join(l.TargetDir, ".fingerprint") }

// BuildScriptDir is the per-(pkg,hash) build-script working directory:
// build/<pkg>-<hash>/.
func (l Layout) BuildScriptDir(pkgHash string) string {
	return filepath.Join(l.Build(), pkgHash)
}

// DepArtifact is the per-unit, hash-suffixed artifact path inside deps/.
func (l Layout) DepArtifact(crateName, hash, ext string) string {
	return filepath.Join(l.Deps(), crateName+"-"+hash+"."+ext)
}

// CanonicalArtifact is the user-facing, unsuffixed path a root unit's
// artifact gets hardlinked to.
func (l Layout) CanonicalArtifact(name string) string {
	return filepath.Join(l.Root(), name)
}

// FingerprintUnitDir is the directory holding one unit's fingerprint
// record and translated dep-info (spec.md §4.5).
func (l Layout) FingerprintUnitDir(unitDirName string) string {
	return filepath.Join(l.Fingerprint(), unitDirName)
}
