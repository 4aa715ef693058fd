package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"filingest/internal/config"
	"filingest/internal/extract"
	"filingest/internal/fetch"
	"filingest/internal/filing"
	"filingest/internal/pipeline"
	"filingest/internal/secquery"
	"filingest/internal/sink"
	"filingest/internal/storage"
	"filingest/internal/structure"
)

var (
	tickers     []string
	years       []int
	quarters    []int
	concurrency int
	outputDir   string
	maxPages    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Find and extract filings for the given tickers and periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg := config.Load()
		if cfg.SECAPIKey == "" {
			return fmt.Errorf("SEC_API_KEY is required")
		}
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
		if concurrency <= 0 {
			concurrency = cfg.Concurrency
		}
		if maxPages <= 0 {
			maxPages = cfg.MaxPagesPerChunk
		}

		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		defer genaiClient.Close()

		store, err := storage.NewLocal(outputDir)
		if err != nil {
			return err
		}

		stats := extract.NewLLMStats(time.Hour)
		worker := pipeline.NewWorker(
			fetch.New(cfg.UserAgent, cfg.FetchTimeout, cfg.PDFFallbackPdftotext, log),
			structure.NewAnalyzer(genaiClient, cfg.StructureModel, stats, log),
			extract.NewExtractor(genaiClient, cfg.ExtractionModel, stats, log),
			sink.NewCSVSink(store, log),
			log,
			maxPages,
			cfg.MaxConcurrentExtract,
		)

		printHeader(cmd.OutOrStdout(), tickers, years, quarters, concurrency)

		sec := secquery.NewClient(cfg.SECAPIBaseURL, cfg.SECAPIKey, log)
		var tasks []filing.Task
		for _, ticker := range tickers {
			found, err := sec.FindAll(ctx, ticker, years, quarters)
			if err != nil {
				return fmt.Errorf("discovery for %s: %w", ticker, err)
			}
			tasks = append(tasks, found...)
		}
		if len(tasks) == 0 {
			return fmt.Errorf("no filings found")
		}
		printDiscovered(cmd.OutOrStdout(), tasks)

		sched := pipeline.NewScheduler(worker, log)
		sched.Notify = func(r filing.BatchResult) {
			printResult(cmd.OutOrStdout(), r)
		}
		results := sched.Run(ctx, tasks, concurrency)

		printSummary(cmd.OutOrStdout(), results, outputDir)
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVarP(&tickers, "ticker", "t", nil, "Ticker symbols to process (repeatable)")
	runCmd.Flags().IntSliceVarP(&years, "year", "y", nil, "Fiscal years to cover")
	runCmd.Flags().IntSliceVarP(&quarters, "quarter", "q", []int{1, 2, 3, 4}, "Fiscal quarters to cover")
	runCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Filings processed in parallel (default from CONCURRENCY)")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "Directory for extracted CSVs")
	runCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Max pages per extraction chunk (default from MAX_PAGES_PER_CHUNK)")
	runCmd.MarkFlagRequired("ticker")
	runCmd.MarkFlagRequired("year")

	rootCmd.AddCommand(runCmd)
}
