package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"filingest/internal/filing"
	"filingest/internal/pipeline"
)

type batchRequest struct {
	// Explicit tasks with known exhibit URLs.
	Tasks []filing.Task `json:"tasks"`

	// Discovery mode: look filings up via the SEC query API.
	Tickers  []string `json:"tickers"`
	Years    []int    `json:"years"`
	Quarters []int    `json:"quarters"`

	Concurrency int `json:"concurrency"`
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tasks := req.Tasks
	if len(tasks) == 0 && len(req.Tickers) > 0 {
		if s.sec == nil {
			jsonError(w, "filing discovery is not configured", http.StatusServiceUnavailable)
			return
		}
		for _, ticker := range req.Tickers {
			found, err := s.sec.FindAll(r.Context(), ticker, req.Years, req.Quarters)
			if err != nil {
				jsonError(w, fmt.Sprintf("discovery for %s: %s", ticker, err), http.StatusBadGateway)
				return
			}
			tasks = append(tasks, found...)
		}
	}

	if len(tasks) == 0 {
		jsonError(w, "no filings to process", http.StatusBadRequest)
		return
	}
	if len(tasks) > s.cfg.MaxTasksPerBatch {
		jsonError(w, fmt.Sprintf("batch exceeds max size (%d filings)", s.cfg.MaxTasksPerBatch), http.StatusRequestEntityTooLarge)
		return
	}
	for i, task := range tasks {
		if task.Ticker == "" || task.Quarter < 1 || task.Quarter > 4 || task.URL == "" {
			jsonError(w, fmt.Sprintf("task %d is incomplete: ticker, quarter 1-4 and url are required", i), http.StatusBadRequest)
			return
		}
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = s.cfg.Concurrency
	}

	batch := pipeline.NewBatch(tasks)
	s.batches.Put(batch)
	go s.runBatch(batch, concurrency)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"batch_id": batch.ID,
		"status":   batch.Status,
		"total":    len(tasks),
		"poll_url": fmt.Sprintf("/api/batches/%s", batch.ID),
	})
}

// runBatch drives one batch to completion in the background. Each batch
// gets its own admission gate so one large batch cannot starve another.
func (s *Server) runBatch(batch *pipeline.Batch, concurrency int) {
	batch.SetStatus(pipeline.BatchRunning)

	sched := pipeline.NewScheduler(s.proc, s.log)
	results := sched.Run(context.Background(), batch.Tasks, concurrency)

	batch.SetResults(results)
	batch.SetStatus(pipeline.BatchCompleted)
	s.log.Info("batch complete", "batch_id", batch.ID, "filings", len(results))
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	batch := s.batches.Get(batchID)
	if batch == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batch.Snapshot())
}

func (s *Server) handleBatchReport(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	batch := s.batches.Get(batchID)
	if batch == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}

	report := pipeline.BatchReport(batch.Snapshot())
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(report))
		return
	}

	html, err := pipeline.RenderHTML(report)
	if err != nil {
		jsonError(w, "render report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
