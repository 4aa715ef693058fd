package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"filingest/internal/api"
	"filingest/internal/config"
	"filingest/internal/extract"
	"filingest/internal/fetch"
	"filingest/internal/pipeline"
	"filingest/internal/secquery"
	"filingest/internal/sink"
	"filingest/internal/storage"
	"filingest/internal/structure"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Error("gemini client init failed", "error", err)
		os.Exit(1)
	}
	defer genaiClient.Close()

	store, err := storage.FromEnv()
	if err != nil {
		log.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	stats := extract.NewLLMStats(time.Hour)
	analyzer := structure.NewAnalyzer(genaiClient, cfg.StructureModel, stats, log)
	extractor := extract.NewExtractor(genaiClient, cfg.ExtractionModel, stats, log)
	fetcher := fetch.New(cfg.UserAgent, cfg.FetchTimeout, cfg.PDFFallbackPdftotext, log)
	csvSink := sink.NewCSVSink(store, log)
	sec := secquery.NewClient(cfg.SECAPIBaseURL, cfg.SECAPIKey, log)

	worker := pipeline.NewWorker(fetcher, analyzer, extractor, csvSink, log, cfg.MaxPagesPerChunk, cfg.MaxConcurrentExtract)
	batches := pipeline.NewBatchStore(cfg.BatchTTL)

	// Evict expired batches in the background.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				batches.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	srv := api.NewServer(worker, sec, batches, stats, log, cfg)

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

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting filingest", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
