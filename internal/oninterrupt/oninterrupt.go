// Package oninterrupt lets subcommands and long-running components register
// cleanup handlers that run once, synchronously, on SIGINT — e.g. the build
// driver (cmd/ferrocore/build.go) uses it to flush collected build-script
// warnings before the process exits mid-build.
package oninterrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	onInterruptMu sync.Mutex
	onInterrupt   []func()
)

func init() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		signal := <-c
		onInterruptMu.Lock()
		for _, f := range onInterrupt {
			f()
		}
		onInterruptMu.Unlock()
		if sig, ok := signal.(syscall.Signal); ok {
			os.Exit(128 + int(sig))
		}
		os.Exit(1)
	}()
}

// Register adds cb to the set of functions run on interrupt.
func Register(cb func()) {
	onInterruptMu.Lock()
	defer onInterruptMu.Unlock()
	onInterrupt = append(onInterrupt, cb)
}
