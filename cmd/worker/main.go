package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tripdesk/tripdesk/internal/app"
	"github.com/tripdesk/tripdesk/internal/itinerary"
	jobmetrics "github.com/tripdesk/tripdesk/internal/jobs"
	"github.com/tripdesk/tripdesk/internal/store"
	"github.com/tripdesk/tripdesk/internal/workspace"
	"github.com/tripdesk/tripdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.StoreBackend == store.BackendMemory {
		logger.Error("worker needs a shared slice store", slog.String("backend", cfg.StoreBackend))
		os.Exit(1)
	}

	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("open backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer backends.Close()

	service := workspace.NewService(
		itinerary.NewClient(cfg.ItineraryAPIURL),
		store.NewSlices(backends.Store, logger),
		nil,
		app.WorkspaceOptions(cfg),
		logger,
		nil,
	)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Proposals: jobs.NewProposalGenerationJob(service, logger, jobmetrics.NewMetrics(nil)),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
