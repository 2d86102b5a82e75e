package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/api"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/cfg"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/fetch"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/ingest"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/source"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting Pulse server", "version", appConfig.Version)

	loc := appConfig.Location()

	// Load taxonomy tables
	taxonomy := catalog.NewTaxonomy(appConfig.TaxonomyFile)
	if err := taxonomy.Run(); err != nil {
		log.Fatal("Failed to load taxonomy:", err)
	}
	slog.Info("Taxonomy loaded", "categories", len(taxonomy.Categories()))

	// Data source
	var dataSource source.Source
	var inserter source.Inserter

	switch appConfig.SourceKind {
	case "sqlite":
		slog.Info("Opening sqlite source", "path", appConfig.SourceDB)
		sqliteSource, err := source.OpenSQLite(appConfig.SourceDB)
		if err != nil {
			log.Fatal("Failed to open sqlite source:", err)
		}
		defer sqliteSource.Close()

		version, dirty, err := sqliteSource.RunMigrations()
		if err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
		slog.Info("Migrations applied", "version", version, "dirty", dirty)

		dataSource = sqliteSource
		inserter = sqliteSource
	default:
		slog.Info("Using REST source", "url", appConfig.SourceURL)
		dataSource = source.NewRESTSource(appConfig.SourceURL, &http.Client{}, appConfig.UserAgent)
	}

	// Initialize core components
	timeNorm := catalog.NewTimeNormalizer(loc, catalog.RepairPolicy{
		MaxArtifactHour: appConfig.RepairHourMax,
		StartHour:       appConfig.StartRepairHour,
		EndHour:         appConfig.EndRepairHour,
	})
	scorer := catalog.NewDealScorer()
	normalizer := catalog.NewNormalizer(timeNorm, taxonomy, scorer)
	store := catalog.NewStore(loc, scorer)

	fetcher := fetch.NewPagedFetcher(dataSource, appConfig.PageSize, appConfig.MaxRows)
	coordinator := fetch.NewCoordinator()

	ingester := ingest.NewIngester(&http.Client{}, appConfig.UserAgent, loc)

	// Initialize and start scheduler
	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount, "interval", appConfig.SchedulerInterval)
	scheduler := tasks.NewScheduler(coordinator, fetcher, normalizer, store, taxonomy, ingester, inserter)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	apiHandler := api.NewHandler(store, taxonomy, scorer, normalizer, coordinator, fetcher, scheduler)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Pulse server started successfully")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Pulse server shutdown complete")
}
