package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/notex/internal/server"
	"github.com/iudanet/notex/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Переменные окружения имеют приоритет над .env
	envFile := os.Getenv("NOTEX_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	fileLookup, err := config.ReadEnvFile(envFile)
	if err != nil {
		return err
	}

	cfg, err := config.Parse(os.Args[1:], config.Chain(os.LookupEnv, fileLookup))
	if err != nil {
		return err
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		return nil
	}

	logger := cfg.NewLogger(os.Stdout)
	logger.Info("Notex server starting", "version", Version, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger, Version)
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}

	logger.Info("Notex server stopped")
	return nil
}

func printVersion() {
	fmt.Printf("Notex Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
