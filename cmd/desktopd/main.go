package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openclaw/desktopd/internal/config"
	"github.com/openclaw/desktopd/internal/server"
)

func main() {
	// Parse flags
	port := flag.String("port", "", "listen port (overrides PORT)")
	host := flag.String("host", "", "listen host (overrides HOST)")
	resources := flag.String("resources", "", "bundled resource dir (overrides OPENCLAW_RESOURCE_DIR)")
	dev := flag.Bool("dev", false, "development mode: console logs, host node fallback")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *resources != "" {
		cfg.Launch.ResourceDir = *resources
	}
	if *dev {
		cfg.Launch.Development = true
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
