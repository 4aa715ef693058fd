// Package pipeline runs filings end to end: fetch, structure analysis,
// chunk planning, per-chunk extraction, merge, and CSV output.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"filingest/internal/chunker"
	"filingest/internal/extract"
	"filingest/internal/filing"
	"filingest/internal/pagedoc"
)

// Fetcher downloads one filing exhibit into a workspace directory.
type Fetcher interface {
	Fetch(ctx context.Context, task filing.Task, dir string) (*pagedoc.Document, error)
}

// StructureProvider maps a document into page-range sections.
type StructureProvider interface {
	Analyze(ctx context.Context, doc *pagedoc.Document) (*filing.Structure, error)
}

// ExtractionProvider pulls metrics out of one chunk.
type ExtractionProvider interface {
	ExtractChunk(ctx context.Context, req extract.Request) ([]filing.Metric, error)
}

// Sink persists a filing's merged dataset and returns where it landed.
type Sink interface {
	Write(ctx context.Context, task filing.Task, records filing.Dataset) (string, error)
}

// Worker processes a single filing.
type Worker struct {
	fetcher   Fetcher
	analyzer  StructureProvider
	extractor ExtractionProvider
	sink      Sink
	log       *slog.Logger

	maxPagesPerChunk     int
	maxConcurrentExtract int
}

func NewWorker(fetcher Fetcher, analyzer StructureProvider, extractor ExtractionProvider, sink Sink, log *slog.Logger, maxPagesPerChunk, maxConcurrentExtract int) *Worker {
	if maxPagesPerChunk <= 0 {
		maxPagesPerChunk = chunker.DefaultMaxPages
	}
	if maxConcurrentExtract <= 0 {
		maxConcurrentExtract = 1
	}
	return &Worker{
		fetcher:              fetcher,
		analyzer:             analyzer,
		extractor:            extractor,
		sink:                 sink,
		log:                  log,
		maxPagesPerChunk:     maxPagesPerChunk,
		maxConcurrentExtract: maxConcurrentExtract,
	}
}

func failed(task filing.Task, stage string, err error) filing.BatchResult {
	return filing.BatchResult{
		Task:    task,
		Outcome: filing.OutcomeFailed,
		Reason:  fmt.Sprintf("%s: %s", stage, err),
	}
}

// Process runs the full pipeline for one filing. The per-filing workspace
// is removed before returning, whatever the outcome.
func (w *Worker) Process(ctx context.Context, task filing.Task) filing.BatchResult {
	log := w.log.With("filing", task.Label(), "exhibit", task.Exhibit)

	dir, err := os.MkdirTemp("", fmt.Sprintf("%s_Q%d_%d_", task.Ticker, task.Quarter, task.Year))
	if err != nil {
		return failed(task, "workspace", err)
	}
	defer os.RemoveAll(dir)

	// Phase 1: fetch the exhibit.
	doc, err := w.fetcher.Fetch(ctx, task, dir)
	if err != nil {
		log.Error("fetch failed", "url", task.URL, "error", err)
		return failed(task, "fetch", err)
	}
	log.Info("exhibit fetched", "pages", doc.PageCount())

	// Phase 2: structure analysis, with retries on transient API errors.
	var st *filing.Structure
	for attempt := range MaxRetries {
		st, err = w.analyzer.Analyze(ctx, doc)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable structure error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return failed(task, "structure", ctx.Err())
		}
	}
	if err != nil {
		log.Error("structure analysis failed", "error", err)
		return failed(task, "structure", err)
	}
	if st == nil {
		return failed(task, "structure", fmt.Errorf("no structure returned"))
	}

	// Phase 3: chunk planning.
	chunks := chunker.Plan(st.Sections, w.maxPagesPerChunk)
	log.Info("chunks planned", "sections", len(st.Sections), "chunks", len(chunks))

	// Phase 4: extract each chunk with bounded concurrency.
	records, chunkErrs := w.extractChunks(ctx, log, task, doc, dir, chunks)

	// Phase 5: merge. No rows at all is a distinct non-failure outcome.
	if len(records) == 0 {
		log.Warn("no data extracted", "chunk_errors", len(chunkErrs))
		return filing.BatchResult{
			Task:    task,
			Outcome: filing.OutcomeEmpty,
			Reason:  strings.Join(chunkErrs, "; "),
		}
	}

	output, err := w.sink.Write(ctx, task, records)
	if err != nil {
		log.Error("dataset write failed", "error", err)
		return failed(task, "merge", err)
	}

	log.Info("filing complete", "rows", len(records), "output", output)
	return filing.BatchResult{
		Task:    task,
		Outcome: filing.OutcomeSuccess,
		Records: records,
		Rows:    len(records),
		Reason:  strings.Join(chunkErrs, "; "),
		Output:  output,
	}
}

// extractChunks runs per-chunk extraction and merges rows back in chunk
// order. A failed chunk contributes nothing; the rest still count.
func (w *Worker) extractChunks(ctx context.Context, log *slog.Logger, task filing.Task, doc *pagedoc.Document, dir string, chunks []filing.Chunk) (filing.Dataset, []string) {
	type chunkResult struct {
		idx  int
		rows []filing.Metric
		err  error
	}
	results := make(chan chunkResult, len(chunks))
	sem := make(chan struct{}, w.maxConcurrentExtract)

	dispatched := 0
	for i, chunk := range chunks {
		if !chunk.HasData {
			log.Info("skipping chunk without financial data", "chunk", i, "pages", chunk.Pages())
			continue
		}
		dispatched++
		sem <- struct{}{}
		go func(i int, chunk filing.Chunk) {
			defer func() { <-sem }()
			rows, err := w.extractOne(ctx, log, task, doc, dir, i, chunk)
			results <- chunkResult{idx: i, rows: rows, err: err}
		}(i, chunk)
	}

	byChunk := make(map[int][]filing.Metric, dispatched)
	var errs []string
	for range dispatched {
		r := <-results
		if r.err != nil {
			log.Error("chunk extraction failed", "chunk", r.idx, "error", r.err)
			errs = append(errs, fmt.Sprintf("chunk %d: %s", r.idx, r.err))
			continue
		}
		byChunk[r.idx] = r.rows
	}

	indices := make([]int, 0, len(byChunk))
	for idx := range byChunk {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var merged filing.Dataset
	for _, idx := range indices {
		for i := range byChunk[idx] {
			if extract.CleanMetric(&byChunk[idx][i]) {
				merged = append(merged, byChunk[idx][i])
			}
		}
	}
	return merged, errs
}

// extractOne materializes a single chunk, runs extraction with retries,
// and always removes the chunk file afterwards.
func (w *Worker) extractOne(ctx context.Context, log *slog.Logger, task filing.Task, doc *pagedoc.Document, dir string, idx int, chunk filing.Chunk) ([]filing.Metric, error) {
	path, err := doc.MaterializeRange(dir, idx, chunk.StartPage, chunk.EndPage)
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}

	req := extract.Request{
		Ticker:    task.Ticker,
		Quarter:   task.Quarter,
		Year:      task.Year,
		StartPage: chunk.StartPage,
		EndPage:   chunk.EndPage,
		Sections:  chunk.Sections,
		Text:      string(data),
	}

	var rows []filing.Metric
	var lastErr error
	for attempt := range MaxRetries {
		rows, lastErr = w.extractor.ExtractChunk(ctx, req)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable extraction error", "chunk", idx, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return rows, lastErr
}
