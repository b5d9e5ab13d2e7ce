package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tripdesk/tripdesk/internal/app"
	"github.com/tripdesk/tripdesk/internal/catalog"
	"github.com/tripdesk/tripdesk/internal/itinerary"
	"github.com/tripdesk/tripdesk/internal/observability"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/store"
	"github.com/tripdesk/tripdesk/internal/workspace"
	"github.com/tripdesk/tripdesk/jobs"
	"github.com/tripdesk/tripdesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("open backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer backends.Close()

	metrics := observability.NewMetrics()

	catalogCache := catalog.NewCache(backends.Redis, cfg.CatalogCacheTTL)
	catalogService := catalog.NewService(
		catalog.NewClient(cfg.CatalogAPIURL),
		catalog.NewClient(cfg.HotelSearchURL),
		catalogCache,
		logger,
	)

	slices := store.NewSlices(backends.Store, logger)
	workspaceService := workspace.NewService(
		itinerary.NewClient(cfg.ItineraryAPIURL),
		slices,
		catalogService,
		app.WorkspaceOptions(cfg),
		logger,
		metrics,
	)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	renderer, err := proposals.NewRenderer(pdfClient)
	if err != nil {
		logger.Error("init proposal renderer", slog.Any("error", err))
		os.Exit(1)
	}

	var enqueuer workspace.Enqueuer
	var inspector jobs.QueueInspector
	if backends.Redis != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		enqueuer = jobClient

		asynqInspector := asynq.NewInspector(redisOpts)
		defer func() {
			_ = asynqInspector.Close()
		}()
		inspector = asynqInspector
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		WorkspaceHandler: workspace.NewHandler(workspaceService, renderer, enqueuer, logger),
		CatalogHandler:   catalog.NewHandler(catalogService),
		ReportHandler:    report.NewHandler(pdfClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
