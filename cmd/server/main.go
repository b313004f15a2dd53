package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/chapterizer"
	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/diarizer"
	"github.com/nguyentantai21042004/insight-flow/internal/httpapi"
	"github.com/nguyentantai21042004/insight-flow/internal/ingest"
	"github.com/nguyentantai21042004/insight-flow/internal/jobstore"
	"github.com/nguyentantai21042004/insight-flow/internal/llm"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/processor"
	"github.com/nguyentantai21042004/insight-flow/internal/summarizer"
	"github.com/nguyentantai21042004/insight-flow/internal/transcriber"
	"github.com/nguyentantai21042004/insight-flow/internal/translator"
	"github.com/nguyentantai21042004/insight-flow/internal/watcher"
	"github.com/nguyentantai21042004/insight-flow/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config")
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Insight Flow")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s, CPU cores: %d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	log.Info(ctx, "Max concurrent jobs: %d, max provider calls: %d", cfg.Performance.MaxConcurrent, cfg.Performance.MaxProviderCalls)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "%v", err)
		os.Exit(1)
	}
	log.Info(ctx, "Insight Flow stopped")
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if err := ensureDirectories(cfg); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	store, err := jobstore.New(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	names := append(append([]string{}, cfg.Summarizer.Providers...), cfg.Translation.Providers...)
	clients, err := llm.FromConfig(cfg, names, log)
	if err != nil {
		return fmt.Errorf("build llm clients: %w", err)
	}
	summary, err := summarizer.FromConfig(cfg, clients, log)
	if err != nil {
		return fmt.Errorf("build summarizer: %w", err)
	}

	exec := executor.New()
	ingestor := ingest.New(cfg, exec, log)
	proc := processor.New(cfg, processor.Dependencies{
		Store:       store,
		Ingestor:    ingestor,
		Transcriber: transcriber.New(cfg.Whisper, exec, log),
		Diarizer:    diarizer.New(cfg.Diarization, exec, log),
		Summarizer:  summary,
		Chapterizer: chapterizer.New(llm.Ordered(clients, cfg.Summarizer.Providers), chapterizer.Options{
			WindowSize:     cfg.Chapters.WindowSize,
			MaxPromptChars: cfg.Chapters.MaxPromptChars,
		}, log),
		Translator: translator.New(llm.Ordered(clients, cfg.Translation.Providers), cfg.Translation.DefaultSource, log),
	}, log)

	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("start processor: %w", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 2)

	if cfg.Server.WatchEnabled {
		w, err := watcher.New(cfg.Paths.Watch, watcher.SubmitHandler(proc, log), log)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer w.Stop()

		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("watcher: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.New(proc, ingestor, cfg.Server.MaxUploadMB, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Insight Flow is ready!")
	log.Info(ctx, "Listening on %s (store: %s)", cfg.Server.Addr, cfg.Store.Driver)
	if cfg.Server.WatchEnabled {
		log.Info(ctx, "Monitoring: %s", cfg.Paths.Watch)
	}
	log.Info(ctx, "Summarizer: %v, translation: %v", cfg.Summarizer.Providers, cfg.Translation.Providers)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case runErr = <-errChan:
	}

	// Graceful shutdown
	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "HTTP shutdown: %v", err)
	}

	log.Info(ctx, "Waiting for running jobs to finish...")
	proc.Stop()
	return runErr
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Uploads,
		cfg.Paths.Temp,
		cfg.Paths.Archived,
	}
	if cfg.Server.WatchEnabled {
		dirs = append(dirs, cfg.Paths.Watch)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
