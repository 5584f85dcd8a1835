package layout

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLayoutPathsNative(t *testing.T) {
	l := Layout{TargetDir: "/work/target", Profile: "debug"}
	if got, want := l.Root(), filepath.Join("/work/target", "debug"); got != want {
		t.Errorf("Root() = %q, want %q", got, want)
	}
	if got, want := l.Deps(), filepath.Join("/work/target", "debug", "deps"); got != want {
		t.Errorf("Deps() = %q, want %q", got, want)
	}
	if got, want := l.Fingerprint(), filepath.Join("/work/target", ".fingerprint"); got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}
}

func TestLayoutPathsCrossCompile(t *testing.T) {
	l := Layout{TargetDir: "/work/target", Profile: "release", Triple: "x86_64-unknown-ferros-gnu"}
	want := filepath.Join("/work/target", "x86_64-unknown-ferros-gnu", "release", "deps")
	if got := l.Deps(); got != want {
		t.Errorf("Deps() = %q, want %q", got, want)
	}
}

func TestLinkArtifactHardlinksThenCopies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.rlib")
	if err := os.WriteFile(src, []byte("artifact bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "nested", "dest.rlib")
	if err := LinkArtifact(src, dest); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "artifact bytes" {
		t.Errorf("dest content = %q", got)
	}
}

func TestLinkArtifactRemovesStaleDest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.rlib")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "dest.rlib")
	if err := os.WriteFile(dest, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LinkArtifact(src, dest); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("dest content = %q, want %q", got, "new")
	}
}

func TestPreferRlibRemovesStaleRmeta(t *testing.T) {
	dir := t.TempDir()
	rmeta := filepath.Join(dir, "foo-abc123.rmeta")
	rlib := filepath.Join(dir, "foo-abc123.rlib")
	if err := os.WriteFile(rmeta, []byte("meta"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(rmeta, old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rlib, []byte("lib"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := PreferRlib(dir, "foo", "abc123"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(rmeta); !os.IsNotExist(err) {
		t.Errorf("expected stale rmeta removed, stat err = %v", err)
	}
}

func TestPreferRlibKeepsRmetaWhenNoRlib(t *testing.T) {
	dir := t.TempDir()
	rmeta := filepath.Join(dir, "foo-abc123.rmeta")
	if err := os.WriteFile(rmeta, []byte("meta"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := PreferRlib(dir, "foo", "abc123"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(rmeta); err != nil {
		t.Errorf("rmeta should survive when no sibling rlib exists: %v", err)
	}
}

func TestPickCanonicalPrefersRlibOverRmeta(t *testing.T) {
	got := pickCanonical([]string{"foo.rmeta", "foo.rlib", "foo.d"})
	if got != "foo.rlib" {
		t.Errorf("pickCanonical = %q, want foo.rlib", got)
	}
}

func TestWriteBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.rlib")
	f2 := filepath.Join(dir, "b.rlib")
	if err := os.WriteFile(f1, []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f2, []byte("bbb"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "bundle.tar.zst")
	w, err := os.Create(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteBundle(w, []string{f1, f2}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	manifest, err := ReadBundleManifest(r)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a.rlib", "b.rlib"}, manifest.Files); diff != "" {
		t.Errorf("manifest.Files differs (-want +got):\n%s", diff)
	}
}

func TestExportArtifacts(t *testing.T) {
	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "export")
	f := filepath.Join(srcDir, "out.rlib")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ExportArtifacts([]string{f}, destDir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(destDir, "out.rlib")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(destDir, "out.rlib.gz")); err != nil {
		t.Errorf("expected a precompressed .gz sibling: %v", err)
	}
}
