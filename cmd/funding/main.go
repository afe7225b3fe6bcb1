package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Funding/internal/api"
	"github.com/MikeSquared-Agency/Funding/internal/config"
	"github.com/MikeSquared-Agency/Funding/internal/hermes"
	"github.com/MikeSquared-Agency/Funding/internal/metrics"
	"github.com/MikeSquared-Agency/Funding/internal/scenario"
	"github.com/MikeSquared-Agency/Funding/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (.yaml or .toml)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment is read")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshots
	src, err := store.Open(ctx, cfg.Database.URL, cfg.Snapshots.Dir, cfg.Snapshots.Files)
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	snap, err := scenario.Load(ctx, src, logger)
	if err != nil {
		logger.Error("failed to load snapshots", "error", err)
		os.Exit(1)
	}

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	engine := scenario.NewEngine(snap, scenario.Options{
		Rules:             cfg.Rules(),
		MaxTaxRatePercent: cfg.Policy.MaxTaxRatePercent,
		Events:            hermesClient,
		Metrics:           metrics.New(prometheus.DefaultRegisterer),
		Logger:            logger,
	})
	defer engine.Close()

	if cfg.ReloadInterval() > 0 {
		w := scenario.NewWatcher(engine, src, cfg.ReloadInterval(), logger)
		w.Start(ctx)
		defer w.Stop()
		logger.Info("snapshot watcher started", "interval", cfg.ReloadInterval())
	}

	// API server
	router := api.NewRouter(engine, api.Options{
		AdminToken:         cfg.Server.AdminToken,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		Source:             src,
	}, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
