package layout

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LinkArtifact materializes src at dest: hardlink first, falling back to a
// full copy when hardlinking fails (cross-device, unsupported filesystem),
// exactly spec.md §4.5's "Rules". Grounded on the teacher's copyFile
// (internal/build/build.go), generalized with the os.Link fast path the
// teacher's squashfs-backed image format didn't need.
func LinkArtifact(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	os.Remove(dest) // a stale link/file at dest must not block os.Link
	if err := os.Link(src, dest); err == nil {
		return nil
	}
	return copyFile(src, dest)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// PreferRlib implements the rmeta/rlib tie-break of spec.md §4.5: when
// both exist for the same crate, the rlib wins, and after a rebuild a
// now-stale rmeta is removed outright so the compiler can never pick it up
// by mistake.
func PreferRlib(depsDir, crateName, hash string) error {
	rlib := filepath.Join(depsDir, crateName+"-"+hash+".rlib")
	rmeta := filepath.Join(depsDir, crateName+"-"+hash+".rmeta")

	rlibInfo, rlibErr := os.Stat(rlib)
	rmetaInfo, rmetaErr := os.Stat(rmeta)
	if rlibErr != nil || rmetaErr != nil {
		return nil // only one (or neither) exists: nothing to reconcile
	}
	if rmetaInfo.ModTime().Before(rlibInfo.ModTime()) {
		return os.Remove(rmeta)
	}
	return nil
}

// pickCanonical chooses which of a set of candidate artifact paths for the
// same unit becomes the unsuffixed canonical name, preferring rlib, then a
// shared library (.so/.dylib/.dll), then rmeta, then anything else, which
// keeps PreferRlib's rlib-over-rmeta priority.
func pickCanonical(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	sorted := append([]string(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		return extRank(sorted[i]) < extRank(sorted[j])
	})
	return sorted[0]
}

func extRank(path string) int {
	switch {
	case strings.HasSuffix(path, ".rlib"):
		return 0
	case strings.HasSuffix(path, ".so"), strings.HasSuffix(path, ".dylib"), strings.HasSuffix(path, ".dll"):
		return 1
	case strings.HasSuffix(path, ".rmeta"):
		return 2
	default:
		return 3
	}
}
