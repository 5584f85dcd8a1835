// Package env captures details about the ambient build environment: where
// the workspace root lives, and which variables from §6 of the core spec
// ("CARGO_TARGET_DIR"-equivalents) override the conventional layout.
package env

import "os"

// TargetDir is the workspace's output root (the teacher's equivalent is
// DistriRoot/build/distri). It honors FERROCORE_TARGET_DIR the way cargo
// honors CARGO_TARGET_DIR.
var TargetDir = findTargetDir()

func findTargetDir() string {
	if v := os.Getenv("FERROCORE_TARGET_DIR"); v != "" {
		return v
	}
	return "target"
}

// Jobs returns the configured default concurrency, honoring
// FERROCORE_BUILD_JOBS (cargo: CARGO_BUILD_JOBS), or "" if unset, in which
// case callers should fall back to runtime.NumCPU().
func Jobs() string {
	return os.Getenv("FERROCORE_BUILD_JOBS")
}

// Rustflags returns the configured extra compiler flags, honoring
// FERROCORE_BUILD_RUSTFLAGS / FERROCORE_FLAGS (RUSTFLAGS-equivalent).
func Rustflags() string {
	if v := os.Getenv("FERROCORE_BUILD_RUSTFLAGS"); v != "" {
		return v
	}
	return os.Getenv("FERROCORE_FLAGS")
}
