package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := Execute(); err != nil {
		exitWithError(err)
	}
}

// installSignalHandler triggers a graceful Stop on SIGINT/SIGTERM so
// in-flight connections are closed and the journal file is flushed
// before exit.
func installSignalHandler(srv *Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received %s, shutting down", sig)
		srv.Stop()
	}()
}
