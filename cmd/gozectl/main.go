package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goze/internal/cli"
	"goze/internal/config"
	"goze/internal/logger"
	"goze/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (*cli.Backend, func(), error) {
		app, cleanup, err := server.Bootstrap(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return &cli.Backend{Syncer: app.Scheduler, Users: app.Users, Audit: app.Audit}, cleanup, nil
	}

	if err := cli.NewRootCommand(open, os.Stdin).ExecuteContext(ctx); err != nil {
		stop()
		logger.Sync()
		os.Exit(1)
	}
}
