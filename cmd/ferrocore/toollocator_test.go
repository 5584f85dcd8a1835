package main

import (
	"os"
	"testing"
)

func TestResolvePrefersFlagOverEnvOverPath(t *testing.T) {
	const envVar = "FERROCORE_TEST_TOOL"
	os.Setenv(envVar, "/env/tool")
	defer os.Unsetenv(envVar)

	got, err := resolve("/flag/tool", envVar, "ls")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/flag/tool" {
		t.Errorf("resolve with flag set = %q, want /flag/tool", got)
	}

	got, err = resolve("", envVar, "ls")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/env/tool" {
		t.Errorf("resolve with only env set = %q, want /env/tool", got)
	}
}

func TestResolveFallsBackToPath(t *testing.T) {
	got, err := resolve("", "FERROCORE_TEST_TOOL_UNSET", "ls")
	if err != nil {
		t.Fatalf("resolve via PATH: %v", err)
	}
	if got == "" {
		t.Error("expected a PATH-resolved binary, got empty string")
	}
}

func TestToolLocatorLinkerHonorsConfig(t *testing.T) {
	cfg := Config{Linker: "/custom/ld"}
	loc := NewToolLocator(cfg)
	got, err := loc.Linker("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/custom/ld" {
		t.Errorf("Linker() = %q, want /custom/ld", got)
	}
}
