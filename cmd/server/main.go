package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/qrplate/qrplate/internal/config"
	"github.com/qrplate/qrplate/internal/server"
)

func main() {
	port := flag.Int("port", 0, "HTTP port (overrides configuration)")
	mode := flag.String("mode", "both", "components to run: server, worker, or both")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := server.Run(cfg, server.Options{Port: *port, Mode: *mode}); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
