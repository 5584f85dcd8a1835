package pb

import (
	"path/filepath"
	"testing"
)

func TestOverrideRoundTrip(t *testing.T) {
	f := &OverrideFile{Overrides: []Override{
		{
			Links:        "z",
			LibraryPaths: []string{"/usr/lib", "/usr/local/lib"},
			LibraryLinks: []string{"z"},
			Cfgs:         []string{"zlib_ng"},
			Env:          []KV{{Key: "FOO", Value: "bar"}},
			Metadata:     []KV{{Key: "include", Value: "/usr/include"}},
			Warnings:     []string{"using system zlib"},
		},
	}}

	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.textpb")
	if err := WriteOverrideFile(path, f); err != nil {
		t.Fatal(err)
	}

	got, err := ReadOverrideFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Overrides) != 1 {
		t.Fatalf("got %d overrides, want 1", len(got.Overrides))
	}
	o := got.Overrides[0]
	if o.Links != "z" {
		t.Fatalf("Links = %q, want %q", o.Links, "z")
	}
	if len(o.LibraryPaths) != 2 || o.LibraryPaths[1] != "/usr/local/lib" {
		t.Fatalf("LibraryPaths = %v", o.LibraryPaths)
	}
	if len(o.Env) != 1 || o.Env[0].Key != "FOO" || o.Env[0].Value != "bar" {
		t.Fatalf("Env = %v", o.Env)
	}
	if len(o.Metadata) != 1 || o.Metadata[0].Value != "/usr/include" {
		t.Fatalf("Metadata = %v", o.Metadata)
	}
}

func TestParseOverrideFileRejectsUnknownField(t *testing.T) {
	_, err := ParseOverrideFile([]byte(`override { bogus: "x" }`))
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}
