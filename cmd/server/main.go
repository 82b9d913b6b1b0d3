package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/api"
	"github.com/dgallion1/docfill/internal/archive"
	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/generate"
	"github.com/dgallion1/docfill/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	lib, err := config.LoadLibrary(cfg.PatternsFile)
	if err != nil {
		log.Error("invalid pattern library", "file", cfg.PatternsFile, "error", err)
		os.Exit(1)
	}
	tuning, err := config.LoadEngine(cfg.EngineFile)
	if err != nil {
		log.Error("invalid engine configuration", "file", cfg.EngineFile, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional collaborators.
	var (
		claude *generate.ClaudeClient
		gen    pipeline.Generator
	)
	if cfg.GenerationEnabled() {
		claude = generate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		gen = claude
	} else {
		log.Info("content generation disabled, ANTHROPIC_API_KEY not set")
	}
	var (
		store *archive.Client
		arc   *archive.Archive
	)
	if cfg.ArchiveEnabled() {
		store = archive.NewClient(cfg.ArchiveURL, cfg.ArchiveAPIKey)
		arc = archive.New(store)
	}

	// Initialize pipeline.
	filler := pipeline.NewFiller(analyzer.New(lib), tuning.NewEngine(log), gen, log)
	filler.PDFFallback = cfg.PDFFallbackPdftotext
	orch := pipeline.NewOrchestrator(pipeline.Options{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		JobTTL:    cfg.JobTTL,
	}, filler, arc, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if claude != nil {
			claude.Close()
		}
		if store != nil {
			store.Close()
		}
	}()

	log.Info("starting docfill",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"generation", claude != nil,
		"archive", arc != nil)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
