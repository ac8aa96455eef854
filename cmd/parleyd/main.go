package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/parley-dev/parley/internal/cli"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/daemon"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	root := flag.String("dir", ".", "Directory holding .parley/config.yaml")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("parleyd %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.NewLoader(*root).LoadOrDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cli.ParseLogLevel(cfg.Daemon.LogLevel),
	}))

	daemon.Version = version
	ctx := context.Background()

	d, err := daemon.New(ctx, *root, cfg, logger)
	if err != nil {
		logger.Error("failed to create daemon", "error", err)
		os.Exit(1)
	}

	logger.Info("starting parleyd", "version", version, "dir", *root, "addr", cfg.Daemon.Address())
	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}

	logger.Info("parleyd stopped")
}
