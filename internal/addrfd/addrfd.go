// Package addrfd lets a process communicate a listening address back to its
// parent via an inherited file descriptor, used by the optional local
// artifact server (internal/layout) so integration tests can learn the
// picked port without scraping stdout.
package addrfd

import (
	"flag"
	"log"
	"os"
)

var fd = flag.Int("addrfd", -1, "file descriptor on which to print the picked listen address")

// MustWrite writes addr to the fd passed via -addrfd, if any, and closes it.
// It must be called at most once.
func MustWrite(addr string) {
	if *fd == -1 {
		return
	}
	f := os.NewFile(uintptr(*fd), "")
	if _, err := f.Write([]byte(addr)); err != nil {
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
}
