package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/notex/internal/client/api"
	"github.com/iudanet/notex/internal/client/cli"
	"github.com/iudanet/notex/internal/client/iocli"
	"github.com/iudanet/notex/internal/client/storage/boltdb"
	"github.com/iudanet/notex/internal/client/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	out := iocli.NewStdio()

	// Глобальные флаги, значения по умолчанию берутся из окружения
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", envOr("NOTEX_SERVER", "http://localhost:8080"), "Server URL")
	dbPath := flag.String("db", envOr("NOTEX_CLIENT_DB", "notex-client.db"), "Path to local replica")
	pageSize := flag.Int("page-size", 0, "Entries per sync request, 0 for server default")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")

	flag.Usage = func() { cli.PrintUsage(out) }
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(out)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// watch работает до Ctrl+C, остальные команды тоже прерываются сигналом
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	replica, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	apiClient := api.NewClient(*serverURL)
	syncService := sync.NewService(apiClient, replica, *pageSize, logger)

	runErr := cli.New(out, syncService, replica).Run(ctx, args[0], args[1:])

	if err := replica.Close(); err != nil {
		logger.Error("failed to close database", slog.Any("error", err))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("Notex Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
