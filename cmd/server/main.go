package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/figops/internal/api"
	"github.com/dgallion1/figops/internal/config"
	"github.com/dgallion1/figops/internal/figma"
	"github.com/dgallion1/figops/internal/metrics"
	"github.com/dgallion1/figops/internal/pathstore"
	"github.com/dgallion1/figops/internal/pipeline"
	"github.com/dgallion1/figops/internal/refine"
	"github.com/dgallion1/figops/internal/screens"
	"github.com/dgallion1/figops/internal/tasks"
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Error("load label catalog", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	m := metrics.New(nil)

	store, err := openStore(cfg)
	if err != nil {
		log.Error("open plan store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	apiKey, model := cfg.RefineKey()
	provider, err := refine.New(cfg.RefineProvider, apiKey, model)
	if err != nil {
		log.Error("init refiner", "error", err)
		os.Exit(1)
	}
	stats := refine.NewStats(time.Hour)
	refiner := refine.WithFallback(provider, stats, log).Observe(m.RecordRefine)

	var fetcher pipeline.Fetcher
	var figmaClient *figma.Client
	if cfg.FigmaToken != "" {
		figmaClient = figma.NewClient(cfg.FigmaAPIURL, cfg.FigmaToken)
		fetcher = figmaClient
	}

	// Initialize pipeline.
	worker := pipeline.NewWorker(fetcher, screens.NewExtractor(catalog, log), refiner, m, log, cfg.MaxConcurrentRefine)
	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
		SyncSchedule: cfg.SyncSchedule,
		SyncFileKey:  cfg.FigmaFileKey,
	}, worker, m, log)
	if err := orch.Start(ctx); err != nil {
		log.Error("start pipeline", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server.
	srv := api.NewServer(orch, store, stats, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if figmaClient != nil {
			figmaClient.Close()
		}
		if err := store.Close(); err != nil {
			log.Warn("close plan store", "error", err)
		}
	}()

	log.Info("starting figops",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"refine", cfg.RefineProvider,
		"figma_api", figmaClient != nil,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

func openStore(cfg config.Config) (tasks.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return tasks.OpenSQLite(cfg.SQLitePath)
	case "pathstore":
		return tasks.NewRemoteStore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
