package buildscript

import "testing"

func TestParseLineProtocol(t *testing.T) {
	var out BuildOutput
	lines := []string{
		"cargo:rustc-link-lib=z",
		"cargo:rustc-link-search=/usr/lib",
		"cargo:rustc-cfg=zlib_ng",
		"cargo:rustc-env=FOO=bar",
		"cargo:rerun-if-changed=build.rs",
		"cargo:rerun-if-env-changed=ZLIB_VENDORED",
		"cargo:warning=using system zlib",
		"cargo:rustc-link-arg-bin=mybin=-Wl,-rpath,/opt/lib",
		"not-a-cargo-line",
	}
	for _, l := range lines {
		if err := ParseLine(&out, l, "z"); err != nil {
			t.Fatalf("ParseLine(%q): %v", l, err)
		}
	}

	if len(out.LibraryLinks) != 1 || out.LibraryLinks[0] != "z" {
		t.Fatalf("LibraryLinks = %v", out.LibraryLinks)
	}
	if len(out.LibraryPaths) != 1 || out.LibraryPaths[0] != "/usr/lib" {
		t.Fatalf("LibraryPaths = %v", out.LibraryPaths)
	}
	if out.Env["FOO"] != "bar" {
		t.Fatalf("Env[FOO] = %q", out.Env["FOO"])
	}
	if len(out.RerunIfChanged) != 1 || out.RerunIfChanged[0] != "build.rs" {
		t.Fatalf("RerunIfChanged = %v", out.RerunIfChanged)
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("Warnings = %v", out.Warnings)
	}
	if len(out.LinkArgs) != 1 || out.LinkArgs[0].BinName != "mybin" {
		t.Fatalf("LinkArgs = %v", out.LinkArgs)
	}
}

func TestParseLineRejectsBootstrapEnv(t *testing.T) {
	var out BuildOutput
	if err := ParseLine(&out, "cargo:rustc-env=RUSTC_BOOTSTRAP=1", ""); err == nil {
		t.Fatal("expected an error setting RUSTC_BOOTSTRAP via rustc-env")
	}
}

func TestParseLineUnknownKeyBecomesMetadata(t *testing.T) {
	var out BuildOutput
	if err := ParseLine(&out, "cargo:include=/usr/include", "z"); err != nil {
		t.Fatal(err)
	}
	if out.Metadata["include"] != "/usr/include" {
		t.Fatalf("Metadata = %v", out.Metadata)
	}

	var out2 BuildOutput
	if err := ParseLine(&out2, "cargo:include=/usr/include", ""); err != nil {
		t.Fatal(err)
	}
	if len(out2.Metadata) != 0 {
		t.Fatalf("expected no metadata without a links name, got %v", out2.Metadata)
	}
}

func TestEnvFeatureNamesAndCfgs(t *testing.T) {
	env := Env(EnvRequest{
		OutDir: "/tmp/out", ManifestDir: "/pkg", Target: "x86_64-unknown-linux-gnu",
		Host: "x86_64-unknown-linux-gnu", NumJobs: 4, Profile: "debug", OptLevel: "0",
		Features: []string{"foo-bar"},
		Cfgs:     []string{"unix", `target_os="linux"`, "debug_assertions"},
		DirectBuildDeps: []DepMetadata{
			{Links: "z", Metadata: map[string]string{"include": "/usr/include"}},
		},
	})
	m := toMap(env)
	if m["CARGO_FEATURE_FOO_BAR"] != "1" {
		t.Fatalf("CARGO_FEATURE_FOO_BAR = %q", m["CARGO_FEATURE_FOO_BAR"])
	}
	if m["CARGO_CFG_UNIX"] != "" {
		t.Fatalf("CARGO_CFG_UNIX = %q", m["CARGO_CFG_UNIX"])
	}
	if m["CARGO_CFG_TARGET_OS"] != "linux" {
		t.Fatalf("CARGO_CFG_TARGET_OS = %q", m["CARGO_CFG_TARGET_OS"])
	}
	if _, ok := m["CARGO_CFG_DEBUG_ASSERTIONS"]; ok {
		t.Fatal("debug_assertions must be excluded from CARGO_CFG_*")
	}
	if m["DEP_Z_INCLUDE"] != "/usr/include" {
		t.Fatalf("DEP_Z_INCLUDE = %q", m["DEP_Z_INCLUDE"])
	}
}

func toMap(env []string) map[string]string {
	m := make(map[string]string)
	for _, kv := range env {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return m
}
