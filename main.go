// ABOUTME: This file boots the linkpress service: config, logger, database,
// ABOUTME: dependency wiring, HTTP server and the optional generator loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"linkpress/assembler"
	"linkpress/config"
	"linkpress/driver/llm"
	"linkpress/fetcher"
	"linkpress/handler"
	"linkpress/metrics"
	"linkpress/ratelimit"
	"linkpress/repository"
	"linkpress/retry"
	"linkpress/service"
	"linkpress/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("linkpress", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Repositories.
	feedRepo := repository.NewFeedRepository(pool, log)
	articleRepo := repository.NewArticleRepository(pool, log)
	postRepo := repository.NewPostRepository(pool, log)

	// Ingestion pipeline.
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.HostInterval)
	var feedFetcher fetcher.Fetcher = fetcher.NewClient(cfg.Fetch, limiter, log)
	if cfg.Cache.Enabled {
		feedFetcher = fetcher.NewCache(feedFetcher, cfg.Cache, log)
	}
	articleAssembler := assembler.New(cfg.Assembly, log)
	diagnostics := metrics.NewDiagnostics(metrics.DefaultDiagnosticsCapacity)
	coordinator := service.NewCoordinator(articleRepo, postRepo, diagnostics, cfg.Ingest.ReprocessPolicy, log)

	// Services.
	refreshService := service.NewRefreshService(feedRepo, feedFetcher, articleAssembler, coordinator, cfg.Ingest, log)
	feedService := service.NewFeedService(feedRepo, feedFetcher, log)
	listService := service.NewListService(articleRepo, log)
	cleanupService := service.NewCleanupService(articleRepo, postRepo, cfg.Cleanup, log)

	if cfg.Generator.Enabled {
		llmClient := llm.NewClient(cfg.Generator, log)
		retrier := retry.NewRetrier(cfg.Retry, retry.IsTransient, log)
		generatorService := service.NewPostGeneratorService(postRepo, llmClient, retrier, cfg.Generator, log)
		go service.RunGeneratorLoop(ctx, generatorService, cfg.Generator.Interval, log)
	}

	// HTTP surface.
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	handler.RegisterRoutes(e, handler.Handlers{
		Feed:        handler.NewFeedHandler(feedService, log),
		Post:        handler.NewPostHandler(refreshService, listService, cleanupService, log),
		Diagnostics: handler.NewDiagnosticsHandler(diagnostics),
		Health:      handler.NewHealthHandler(pool, log),
	}, log)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
