package unit

import "fmt"

// Source distinguishes where a package's contents come from. It never
// influences compilation itself, only identity and diagnostics: the
// resolver (an external collaborator, out of scope here) guarantees that no
// two packages with different sources but the same name+version collide.
type Source int

const (
	// SourceRegistry is a package fetched from a package registry.
	SourceRegistry Source = iota
	// SourceGit is a package fetched from a git repository at a pinned commit.
	SourceGit
	// SourcePath is a package referenced by a local filesystem path.
	SourcePath
)

func (s Source) String() string {
	switch s {
	case SourceRegistry:
		return "registry"
	case SourceGit:
		return "git"
	case SourcePath:
		return "path"
	default:
		return "unknown"
	}
}

// PackageId is the triple that globally identifies a package within a build.
// It is the primary key used throughout the unit graph, fingerprint engine
// and build-script runtime.
type PackageId struct {
	Name    string
	Version string
	Source  Source
}

func (id PackageId) String() string {
	return fmt.Sprintf("%s-%s(%s)", id.Name, id.Version, id.Source)
}

// Less provides a deterministic total order over PackageIds: by name, then
// by version (using golang.org/x/mod/semver's comparator when both versions
// parse as semver, falling back to lexicographic order otherwise — packages
// sourced by git commit or local path routinely carry non-semver "versions"),
// then by source. Used to keep root-unit ordering and diagnostic output
// reproducible (spec invariant: determinism).
func (id PackageId) Less(other PackageId) bool {
	if id.Name != other.Name {
		return id.Name < other.Name
	}
	if id.Version != other.Version {
		if less, ok := lessVersion(id.Version, other.Version); ok {
			return less
		}
		return id.Version < other.Version
	}
	return id.Source < other.Source
}
