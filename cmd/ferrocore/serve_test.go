package main

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/ferrocore/ferrocore/internal/buildtest"
)

// TestServe exercises the "serve" verb the way a caller without a shared
// filesystem would: spawn it as a subprocess, read back the address it
// picked over the -addrfd pipe, then fetch an artifact through it.
//
// Mirrors the teacher's TestBuilder/distritest.Export pattern: it assumes a
// "ferrocore" binary is already built and on PATH (the test harness builds
// it before running this test; this package never invokes the Go toolchain
// itself).
func TestServe(t *testing.T) {
	bin, err := exec.LookPath("ferrocore")
	if err != nil {
		t.Skip("ferrocore binary not found on PATH; build it before running this test")
	}

	dir := t.TempDir()
	defer buildtest.RemoveAll(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, cleanup, err := buildtest.Serve(ctx, bin, dir)
	if err != nil {
		t.Fatalf("starting serve: %v", err)
	}
	defer cleanup()

	resp, err := http.Get("http://" + addr + "/hello.txt")
	if err != nil {
		t.Fatalf("fetching artifact: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /hello.txt: got status %d, want 200", resp.StatusCode)
	}
}
