package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"namesmith/internal/availability"
	"namesmith/internal/bot"
	"namesmith/internal/config"
	"namesmith/internal/export"
	"namesmith/internal/generator"
	"namesmith/internal/httpserver"
	"namesmith/internal/metrics"
	"namesmith/internal/pipeline"
	"namesmith/internal/storage"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(cfg.Level())

	log.WithFields(logrus.Fields{
		"badgerdb_path": cfg.BadgerDBPath,
		"generator_url": cfg.GeneratorURL,
		"model":         cfg.GeneratorModel,
		"probe_delay":   cfg.ProbeDelay.String(),
	}).Info("Configuration loaded successfully")

	// Create context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize Components ---
	log.Info("Initializing components...")

	// Database
	repo, err := storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Info("Closing database...")
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()
	go repo.RunGC(ctx, cfg.BadgerGCInterval)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Pipeline
	gen := generator.NewHTTPClient(generator.Options{
		Endpoint:    cfg.GeneratorURL,
		APIKey:      cfg.GeneratorAPIKey,
		Model:       cfg.GeneratorModel,
		MaxTokens:   cfg.GeneratorMaxTokens,
		Temperature: cfg.GeneratorTemperature,
		Timeout:     cfg.GeneratorTimeout,
	}, nil, log)
	prober := availability.NewProber(availability.Heuristic{}, cfg.ProbeDelay, log,
		availability.WithDegradationHook(func(ext string, _ error) { m.IncrementProbeDegradation(ext) }))
	pipe := pipeline.New(gen, prober, log, pipeline.WithMetrics(m))

	// Bot Handler
	service := bot.NewService(repo, pipe, export.NewPDFRenderer(30*time.Second, log), log)
	botHandler, err := bot.NewHandler(cfg, service, log)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot handler: %v", err)
	}

	// Ops server
	var opsServer *http.Server
	if cfg.MetricsAddr != "" {
		opsServer = httpserver.New(cfg.MetricsAddr, httpserver.NewRouter(reg))
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("Metrics server listening")
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// --- Application Startup ---
	log.Info("Starting NameSmith...")
	go botHandler.Start(ctx)
	log.Info("NameSmith is running. Press Ctrl+C to exit.")

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	// --- Graceful Shutdown ---
	log.Info("Shutting down NameSmith...")
	stop()

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down metrics server")
		}
		cancel()
	}

	log.Info("NameSmith shut down gracefully.")
}
