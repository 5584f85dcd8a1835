package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPrepareNoPriorRecord(t *testing.T) {
	dir := t.TempDir()
	d := Prepare(dir, Composed{}, LocalInputs{}, filepath.Join(dir, "artifact"), false, time.Now())
	if d.Freshness != Dirty || d.Reason != ReasonNoPriorRecord {
		t.Fatalf("got %+v, want Dirty/ReasonNoPriorRecord", d)
	}
}

func TestPrepareFreshAfterFinalize(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "artifact")
	if err := writeFile(artifact, "binary"); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	composed := Composed{CompileKind: "host", Mode: "build"}
	if err := Finalize(dir, composed, now.Add(-time.Hour), nil); err != nil {
		t.Fatal(err)
	}

	d := Prepare(dir, composed, LocalInputs{}, artifact, false, now)
	if d.Freshness != Fresh {
		t.Fatalf("got %+v, want Fresh", d)
	}
}

func TestPrepareDirtyOnHashChange(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "artifact")
	if err := writeFile(artifact, "binary"); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := Finalize(dir, Composed{Mode: "build"}, now, nil); err != nil {
		t.Fatal(err)
	}

	d := Prepare(dir, Composed{Mode: "test"}, LocalInputs{}, artifact, false, now)
	if d.Freshness != Dirty || d.Reason != ReasonHashChanged {
		t.Fatalf("got %+v, want Dirty/ReasonHashChanged", d)
	}
}

func TestPrepareDirtyOnStaleInput(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "artifact")
	if err := writeFile(artifact, "binary"); err != nil {
		t.Fatal(err)
	}
	composed := Composed{Mode: "build"}
	invocation := time.Now().Add(-time.Hour)
	if err := Finalize(dir, composed, invocation, nil); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(dir, "src.rs")
	if err := writeFile(src, "fn main() {}"); err != nil {
		t.Fatal(err)
	}
	// Force src newer than the artifact and well past the clock-skew window.
	future := time.Now().Add(time.Hour)
	if err := touch(src, future); err != nil {
		t.Fatal(err)
	}

	d := Prepare(dir, composed, LocalInputs{RerunIfChanged: []string{src}}, artifact, false, time.Now())
	if d.Freshness != Dirty || d.Reason != ReasonInputNewer {
		t.Fatalf("got %+v, want Dirty/ReasonInputNewer", d)
	}
}

func TestPrepareDirtyOnDepDirty(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "artifact")
	if err := writeFile(artifact, "binary"); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	composed := Composed{Mode: "build"}
	if err := Finalize(dir, composed, now, nil); err != nil {
		t.Fatal(err)
	}

	d := Prepare(dir, composed, LocalInputs{}, artifact, true, now)
	if d.Freshness != Dirty || d.Reason != ReasonDepDirty {
		t.Fatalf("got %+v, want Dirty/ReasonDepDirty", d)
	}
}

func TestComposedHashStableForSameDepOrder(t *testing.T) {
	a := DepFingerprint{Hash: [16]byte{1}, ExternCrateName: "a", Public: true}
	b := DepFingerprint{Hash: [16]byte{2}, ExternCrateName: "b", Public: false}
	c1 := Composed{Deps: []DepFingerprint{a, b}}
	c2 := Composed{Deps: []DepFingerprint{a, b}}
	if c1.Hash() != c2.Hash() {
		t.Fatal("identical composed inputs must hash identically")
	}

	c3 := Composed{Deps: []DepFingerprint{b, a}}
	// Dep order is part of the declared extern-crate-name/public tuple list
	// in spec order, so unlike dep_hash folding (unit package), composed
	// hashing is allowed to be order-sensitive here; this just documents it.
	if c1.Hash() == c3.Hash() {
		t.Skip("documented: composed hash happens to be order-insensitive over deps")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func touch(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}
