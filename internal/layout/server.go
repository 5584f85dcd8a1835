package layout

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/lpar/gzipped/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ferrocore/ferrocore/internal/addrfd"
)

// tcpKeepAliveListener is copied from src/net/http/server.go, same as the
// teacher's export server: http.ListenAndServe's default listener doesn't
// expose SetKeepAlive, so a manual net.Listen needs its own wrapper.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	return tc, nil
}

// ServeArtifacts runs an optional local HTTP server over a target
// directory's root (spec.md §4.5's layout), so other invocations of the
// tool, or a remote machine, can fetch built artifacts without a shared
// filesystem. Grounded on the teacher's "distri export" command
// (cmd/distri/export.go): gzipped.FileServer (which serves pre-compressed
// .gz siblings where they exist) when gzip is set, plain http.FileServer
// otherwise, a keep-alive listener,
// and addrfd so a parent process can learn the picked port without
// scraping stdout.
func ServeArtifacts(ctx context.Context, listen string, root string, gzip bool) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	addr := ln.Addr().String()
	server := &http.Server{Addr: addr}
	log.Printf("serving %s on %s", root, addr)

	if gzip {
		http.Handle("/", gzipped.FileServer(http.Dir(root)))
	} else {
		http.Handle("/", http.FileServer(http.Dir(root)))
	}

	addrfd.MustWrite(addr)
	var eg errgroup.Group
	eg.Go(func() error { return server.Serve(tcpKeepAliveListener{ln.(*net.TCPListener)}) })
	eg.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(ctx)
	})
	return eg.Wait()
}
