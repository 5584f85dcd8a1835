package main

import (
	"context"
	"flag"

	"github.com/ferrocore/ferrocore/internal/layout"
)

// runServe implements the "serve" verb: an optional local HTTP server over a
// target directory, for fetching artifacts without a shared filesystem
// (internal/layout.ServeArtifacts, grounded on the teacher's "distri
// export"). -addrfd is a process-wide flag (see main.go), consumed inside
// ServeArtifacts itself.
func runServe(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	var (
		listen = fset.String("listen", ":7070", "[host]:port to listen on")
		dir    = fset.String("dir", "target", "target directory root to serve")
		gzip   = fset.Bool("gzip", true, "serve precompressed .gz files when present")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}
	return layout.ServeArtifacts(ctx, *listen, *dir, *gzip)
}
