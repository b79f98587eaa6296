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

	"bili-notes/app/analysis"
	"bili-notes/app/api"
	"bili-notes/app/cfg"
	"bili-notes/app/knowledge"
	"bili-notes/app/tasks"
	"bili-notes/app/video"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Bili Notes server", "version", appCfg.Version)

	if appCfg.LLMAPIKey == "" {
		slog.Warn("LLM_API_KEY is not set, analysis requests will fail")
	}
	if appCfg.SessionCookie == "" {
		slog.Warn("SESSION_COOKIE is not set, search and caption requests may be rejected upstream")
	}

	// Shared client for all outbound requests. Per-call deadlines are set
	// through request contexts.
	httpClient := &http.Client{}

	searchClient := video.NewSearchClient(httpClient)
	exporter := video.NewExporter()
	downloader := video.NewDownloader(httpClient)

	promptStore := analysis.NewPromptStore()
	if err := promptStore.Run(); err != nil {
		slog.Error("Failed to load prompt templates", "dir", appCfg.PromptsDir, "error", err)
		os.Exit(1)
	}

	captionClient := analysis.NewCaptionClient(httpClient)
	llmClient := analysis.NewClient(httpClient)
	renderer := analysis.NewRenderer()
	pipeline := analysis.NewPipeline(captionClient, llmClient, promptStore, renderer)

	tracker := tasks.NewTracker()
	store := knowledge.NewStore()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(searchClient, exporter, downloader, pipeline, renderer, tracker, scheduler, store)
	server := api.NewServer(handler)

	// WriteTimeout must cover the synchronous single-video analysis path,
	// which waits on one generation call of up to a minute.
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
