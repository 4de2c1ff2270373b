package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/config"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Chain.Name, "chain", cfg.Chain.Name, "Chain: head, devnet, testnet or mainnet")
	flag.StringVar(&cfg.Storage.Driver, "storage", cfg.Storage.Driver, "Registry store: memory or sqlite")
	flag.StringVar(&cfg.Storage.Path, "db", cfg.Storage.Path, "SQLite database path")
	flag.StringVar(&cfg.Loader.Address, "loader", cfg.Loader.Address, "Remote loader gRPC address")
	flag.BoolVar(&cfg.Loader.Enabled, "remote-loader", cfg.Loader.Enabled, "Hand code to the remote loader")
	flag.StringVar(&cfg.Genesis.Dir, "genesis", cfg.Genesis.Dir, "Directory of release bundles to seed at startup")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	if cfg.Logging.Development && os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if err := srv.Close(); err != nil {
		log.Printf("Error during close: %v", err)
	}
}
