package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"filingest/internal/extract"
	"filingest/internal/filing"
	"filingest/internal/pagedoc"
)

type stubFetcher struct {
	pages   []string
	err     error
	lastDir string
}

func (f *stubFetcher) Fetch(ctx context.Context, task filing.Task, dir string) (*pagedoc.Document, error) {
	f.lastDir = dir
	if f.err != nil {
		return nil, f.err
	}
	return pagedoc.New(dir+"/exhibit.htm", f.pages), nil
}

type stubAnalyzer struct {
	structure *filing.Structure
	err       error
}

func (a *stubAnalyzer) Analyze(ctx context.Context, doc *pagedoc.Document) (*filing.Structure, error) {
	return a.structure, a.err
}

type stubExtractor struct {
	mu    sync.Mutex
	calls []extract.Request
	fn    func(req extract.Request) ([]filing.Metric, error)
}

func (e *stubExtractor) ExtractChunk(ctx context.Context, req extract.Request) ([]filing.Metric, error) {
	e.mu.Lock()
	e.calls = append(e.calls, req)
	e.mu.Unlock()
	return e.fn(req)
}

func (e *stubExtractor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type stubSink struct {
	err     error
	records filing.Dataset
}

func (s *stubSink) Write(ctx context.Context, task filing.Task, records filing.Dataset) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.records = records
	return "out/" + task.Ticker + ".csv", nil
}

func testTask() filing.Task {
	return filing.Task{Ticker: "THC", Quarter: 2, Year: 2023, Exhibit: "99.2", URL: "https://example.com/ex992.htm"}
}

func pages(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("page %d text", i+1)
	}
	return out
}

func metric(name string) filing.Metric {
	return filing.Metric{MetricType: "Results", Metric: name, OriginalValue: "$1"}
}

func TestWorkerHappyPath(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(16)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{
		TotalPages: 16,
		Sections: []filing.Section{
			{Name: "Income Statement", StartPage: 1, EndPage: 8, HasData: true},
			{Name: "Narrative", StartPage: 9, EndPage: 16, HasData: false},
		},
	}}
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) {
		return []filing.Metric{metric("Revenue")}, nil
	}}
	sink := &stubSink{}

	w := NewWorker(fetcher, analyzer, extractor, sink, discard(), 8, 2)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Outcome, result.Reason)
	}
	if result.Rows != 1 {
		t.Errorf("expected 1 row, got %d", result.Rows)
	}
	if result.Output != "out/THC.csv" {
		t.Errorf("unexpected output %q", result.Output)
	}
	// Only the chunk with financial data goes to the model.
	if extractor.callCount() != 1 {
		t.Errorf("expected 1 extraction call, got %d", extractor.callCount())
	}
	if _, err := os.Stat(fetcher.lastDir); !os.IsNotExist(err) {
		t.Errorf("workspace %s should have been removed", fetcher.lastDir)
	}
}

func TestWorkerSkipsAllNoDataChunks(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(6)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{
		TotalPages: 6,
		Sections: []filing.Section{
			{Name: "Disclaimers", StartPage: 1, EndPage: 6, HasData: false},
		},
	}}
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) {
		t.Error("extractor should not be called for no-data chunks")
		return nil, nil
	}}

	w := NewWorker(fetcher, analyzer, extractor, &stubSink{}, discard(), 8, 2)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeEmpty {
		t.Fatalf("expected empty outcome, got %s", result.Outcome)
	}
	if extractor.callCount() != 0 {
		t.Errorf("expected zero extraction calls, got %d", extractor.callCount())
	}
}

func TestWorkerZeroSectionsIsEmptyNotFailed(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(3)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{TotalPages: 3}}
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) { return nil, nil }}

	w := NewWorker(fetcher, analyzer, extractor, &stubSink{}, discard(), 8, 2)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeEmpty {
		t.Fatalf("expected empty outcome for sectionless structure, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestWorkerFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}

	w := NewWorker(fetcher, &stubAnalyzer{}, &stubExtractor{}, &stubSink{}, discard(), 8, 2)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeFailed {
		t.Fatalf("expected failure, got %s", result.Outcome)
	}
	if !strings.HasPrefix(result.Reason, "fetch:") {
		t.Errorf("expected fetch stage in reason, got %q", result.Reason)
	}
}

func TestWorkerStructureFailure(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(4)}
	analyzer := &stubAnalyzer{err: errors.New("bad json")}

	w := NewWorker(fetcher, analyzer, &stubExtractor{}, &stubSink{}, discard(), 8, 2)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeFailed {
		t.Fatalf("expected failure, got %s", result.Outcome)
	}
	if !strings.HasPrefix(result.Reason, "structure:") {
		t.Errorf("expected structure stage in reason, got %q", result.Reason)
	}
	if _, err := os.Stat(fetcher.lastDir); !os.IsNotExist(err) {
		t.Errorf("workspace %s should have been removed on failure", fetcher.lastDir)
	}
}

func TestWorkerChunkFailureDegrades(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(16)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{
		TotalPages: 16,
		Sections: []filing.Section{
			{Name: "Income Statement", StartPage: 1, EndPage: 8, HasData: true},
			{Name: "Guidance", StartPage: 9, EndPage: 16, HasData: true},
		},
	}}
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) {
		if req.StartPage == 9 {
			return nil, errors.New("model refused")
		}
		return []filing.Metric{metric("Revenue")}, nil
	}}
	sink := &stubSink{}

	w := NewWorker(fetcher, analyzer, extractor, sink, discard(), 8, 2)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeSuccess {
		t.Fatalf("surviving chunks should still succeed, got %s (%s)", result.Outcome, result.Reason)
	}
	if result.Rows != 1 {
		t.Errorf("expected 1 row from surviving chunk, got %d", result.Rows)
	}
	if !strings.Contains(result.Reason, "chunk 1") {
		t.Errorf("expected failed chunk in reason, got %q", result.Reason)
	}
	// Non-retryable errors get exactly one attempt per chunk.
	if extractor.callCount() != 2 {
		t.Errorf("expected 2 extraction calls, got %d", extractor.callCount())
	}
}

func TestWorkerRetriesTransientExtractionErrors(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(4)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{
		TotalPages: 4,
		Sections: []filing.Section{
			{Name: "Results", StartPage: 1, EndPage: 4, HasData: true},
		},
	}}
	var calls int
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) {
		calls++
		if calls == 1 {
			return nil, &extract.RetryableError{StatusCode: 429, Message: "rate limited"}
		}
		return []filing.Metric{metric("Revenue")}, nil
	}}

	w := NewWorker(fetcher, analyzer, extractor, &stubSink{}, discard(), 8, 1)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeSuccess {
		t.Fatalf("expected success after retry, got %s (%s)", result.Outcome, result.Reason)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestWorkerMergePreservesChunkOrder(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(16)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{
		TotalPages: 16,
		Sections: []filing.Section{
			{Name: "First", StartPage: 1, EndPage: 8, HasData: true},
			{Name: "Second", StartPage: 9, EndPage: 16, HasData: true},
		},
	}}
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) {
		return []filing.Metric{metric(fmt.Sprintf("From page %d", req.StartPage))}, nil
	}}
	sink := &stubSink{}

	w := NewWorker(fetcher, analyzer, extractor, sink, discard(), 8, 2)
	result := w.Process(context.Background(), testTask())

	if result.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Rows)
	}
	if sink.records[0].Metric != "From page 1" || sink.records[1].Metric != "From page 9" {
		t.Errorf("rows out of chunk order: %s, %s", sink.records[0].Metric, sink.records[1].Metric)
	}
}

func TestWorkerSinkFailure(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(4)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{
		TotalPages: 4,
		Sections: []filing.Section{
			{Name: "Results", StartPage: 1, EndPage: 4, HasData: true},
		},
	}}
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) {
		return []filing.Metric{metric("Revenue")}, nil
	}}

	w := NewWorker(fetcher, analyzer, extractor, &stubSink{err: errors.New("disk full")}, discard(), 8, 1)
	result := w.Process(context.Background(), testTask())

	if result.Outcome != filing.OutcomeFailed {
		t.Fatalf("expected failure, got %s", result.Outcome)
	}
	if !strings.HasPrefix(result.Reason, "merge:") {
		t.Errorf("expected merge stage in reason, got %q", result.Reason)
	}
}

func TestWorkerDropsInvalidRows(t *testing.T) {
	fetcher := &stubFetcher{pages: pages(4)}
	analyzer := &stubAnalyzer{structure: &filing.Structure{
		TotalPages: 4,
		Sections: []filing.Section{
			{Name: "Results", StartPage: 1, EndPage: 4, HasData: true},
		},
	}}
	extractor := &stubExtractor{fn: func(req extract.Request) ([]filing.Metric, error) {
		return []filing.Metric{
			metric("Revenue"),
			{Metric: "", OriginalValue: "$5"},
		}, nil
	}}
	sink := &stubSink{}

	w := NewWorker(fetcher, analyzer, extractor, sink, discard(), 8, 1)
	result := w.Process(context.Background(), testTask())

	if result.Rows != 1 {
		t.Errorf("expected invalid row to be dropped, got %d rows", result.Rows)
	}
}
