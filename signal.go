package ferrocore

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context which is canceled when the process
// receives SIGINT or SIGTERM. The job queue stops handing units to workers
// once it is canceled. The driver starts its compiler and build-script
// subprocesses with exec.CommandContext on this context, so those still
// running are killed on cancellation.
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// A second signal terminates immediately, useful when cleanup hangs.
		signal.Stop(sig)
		canc()
	}()
	return ctx, canc
}
