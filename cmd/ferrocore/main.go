// Command ferrocore drives the build-orchestration core against an
// already-resolved package set: it constructs the unit graph, fingerprints
// each unit, runs build scripts, schedules compiler invocations in parallel,
// and links the resulting artifacts into a conventional target directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ferrocore/ferrocore"
	_ "github.com/ferrocore/ferrocore/internal/addrfd" // registers -addrfd on flag.CommandLine
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ferrocore: %v\n", err)
		os.Exit(1)
	}
}

// verb maps to the teacher's cmd/distri dispatch table (distri.go): a
// top-level flag.Parse() for process-wide flags like -addrfd, then a verb
// name followed by verb-scoped flags.
type verb struct {
	fn func(ctx context.Context, args []string) error
}

func run() error {
	flag.Parse()

	ctx, canc := ferrocore.InterruptibleContext()
	defer canc()

	verbs := map[string]verb{
		"build": {runBuild},
		"serve": {runServe},
	}

	args := flag.Args()
	name := "build"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}
	v, ok := verbs[name]
	if !ok {
		return fmt.Errorf("unknown command %q (want one of: build, serve)", name)
	}

	return v.fn(ctx, args)
}

func runBuild(ctx context.Context, args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}
	d, err := newDriver(cfg)
	if err != nil {
		return err
	}
	return d.run(ctx)
}
