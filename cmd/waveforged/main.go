// Command waveforged runs the background conversion daemon: it owns the job
// store, the processing lane, and the HTTP API.
package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"waveforge/internal/acquire"
	"waveforge/internal/config"
	"waveforge/internal/daemon"
	"waveforge/internal/encode"
	"waveforge/internal/jobs"
	"waveforge/internal/logging"
	"waveforge/internal/workflow"
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

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stdout",
			filepath.Join(cfg.Paths.LogDir, "waveforged.log"),
		},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		log.Fatalf("open job store: %v", err)
	}

	acquirer := acquire.NewClient(cfg, logger)
	encoder := encode.NewClient(cfg, logger)
	manager := workflow.NewManager(cfg, store, acquirer, encoder, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	<-ctx.Done()
	d.Stop()
}
