package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"loom/internal/cleanup"
	"loom/internal/compose"
	"loom/internal/config"
	"loom/internal/daemon"
	"loom/internal/engine"
	"loom/internal/jobs"
	"loom/internal/logging"
	"loom/internal/notifications"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}

	client := engine.NewFromConfig(cfg)
	notifier := notifications.NewService(cfg)
	runner := compose.NewRunner(cfg, store, client, notifier, logger)
	sweeper := cleanup.NewSweeper(cfg, store, logger)

	d, err := daemon.New(cfg, store, runner, sweeper, logger)
	if err != nil {
		_ = store.Close()
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("loomd shutting down")
}
