package fingerprint

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Reason names which decision-procedure rule fired, for the "why" log line
// spec.md §4.2 "Observability" asks for.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNoPriorRecord Reason = "no prior fingerprint"
	ReasonHashChanged   Reason = "composed hash changed"
	ReasonInputNewer    Reason = "input newer than artifact"
	ReasonDepDirty      Reason = "dependency dirty"
)

// Decision is the result of Prepare for one unit.
type Decision struct {
	Freshness Freshness
	Reason    Reason
	Detail    string
}

// Prepare implements spec.md §4.2's decision procedure, testing the
// cheapest rule first. anyDepDirty lets the caller fold in the scheduler's
// already-computed transitive freshness of dependencies (rule 4) without
// this package knowing about the unit graph.
func Prepare(dir string, composed Composed, local LocalInputs, artifactPath string, anyDepDirty bool, now time.Time) Decision {
	rec, ok, err := Load(dir)
	if err != nil || !ok {
		return Decision{Freshness: Dirty, Reason: ReasonNoPriorRecord}
	}

	newHash := composed.Hash()
	if newHash != rec.ComposedHash {
		return Decision{Freshness: Dirty, Reason: ReasonHashChanged}
	}

	if path, ok := staleLocalInput(local, artifactPath, rec.InvocationTime, now); ok {
		return Decision{Freshness: Dirty, Reason: ReasonInputNewer, Detail: path}
	}

	if anyDepDirty {
		return Decision{Freshness: Dirty, Reason: ReasonDepDirty}
	}

	return Decision{Freshness: Fresh}
}

// staleLocalInput implements rule 3, plus the clock-skew tie-break and the
// "all source files" fallback from spec.md §4.2's edge-case list. The
// bumped-dep-info-mtime case is BumpDepInfoMtime, not part of this check.
func staleLocalInput(local LocalInputs, artifactPath string, invocationTime, now time.Time) (string, bool) {
	artifactMtime, artifactErr := mtime(artifactPath)
	if artifactErr != nil {
		return artifactPath, true // missing artifact is always stale
	}

	paths := local.RerunIfChanged
	if len(paths) == 0 && local.DepInfoPath == "" && local.PackageRoot != "" {
		// No declared inputs at all: fall back to "all source files of the
		// package" (spec.md §4.2 "Tie-breaks and edge cases").
		var err error
		paths, err = allSourceFiles(local.PackageRoot)
		if err != nil {
			log.Printf("fingerprint: scanning %s for fallback inputs: %v", local.PackageRoot, err)
		}
	}
	if local.DepInfoPath != "" {
		depPaths, err := parseDepInfo(local.DepInfoPath)
		if err != nil {
			log.Printf("fingerprint: reading dep-info %s: %v", local.DepInfoPath, err)
		} else {
			paths = append(paths, depPaths...)
		}
	}

	for _, p := range paths {
		mt, err := mtime(p)
		if err != nil {
			continue // a since-removed input isn't "newer"; a missing dep-info entry is not our problem here
		}
		if mt.Before(artifactMtime) {
			continue
		}
		// mt >= artifactMtime: could be genuinely newer, or a false
		// positive from clock skew if mt barely precedes invocation time.
		if mt.Before(invocationTime) && invocationTime.Sub(mt) < ClockSkewTolerance {
			continue
		}
		return p, true
	}
	return "", false
}

func mtime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// BumpDepInfoMtime implements the third edge case of spec.md §4.2: when a
// build script's output lands inside the tree it watches, its own dep-info
// would otherwise look newer than the artifact just produced from it. It
// sets depInfoPath's mtime to invocationTime. The driver in cmd/ferrocore
// does not call it, so no dep-info file is bumped during a build.
func BumpDepInfoMtime(depInfoPath string, invocationTime time.Time) error {
	if depInfoPath == "" {
		return nil
	}
	return os.Chtimes(depInfoPath, invocationTime, invocationTime)
}

func allSourceFiles(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if fi.Name() == "target" || fi.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}
