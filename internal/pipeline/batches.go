package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"filingest/internal/filing"
)

// BatchStatus represents the state of a batch run.
type BatchStatus string

const (
	BatchQueued    BatchStatus = "queued"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
)

// Batch tracks the state of one batch of filings.
type Batch struct {
	mu sync.Mutex

	ID     string      `json:"batch_id"`
	Status BatchStatus `json:"status"`

	Tasks     []filing.Task        `json:"tasks"`
	Results   []filing.BatchResult `json:"results"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func NewBatch(tasks []filing.Task) *Batch {
	now := time.Now()
	return &Batch{
		ID:        uuid.NewString(),
		Status:    BatchQueued,
		Tasks:     tasks,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates batch status atomically.
func (b *Batch) SetStatus(status BatchStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Status = status
	b.UpdatedAt = time.Now()
}

// AddResult records one filing's result as it completes.
func (b *Batch) AddResult(r filing.BatchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Results = append(b.Results, r)
	b.UpdatedAt = time.Now()
}

// SetResults replaces the results with the final submission-ordered set.
func (b *Batch) SetResults(results []filing.BatchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Results = results
	b.UpdatedAt = time.Now()
}

// BatchSnapshot is a read-only, JSON-safe copy of batch state.
type BatchSnapshot struct {
	ID        string               `json:"batch_id"`
	Status    BatchStatus          `json:"status"`
	Total     int                  `json:"total"`
	Completed int                  `json:"completed"`
	Succeeded int                  `json:"succeeded"`
	Empty     int                  `json:"empty"`
	Failed    int                  `json:"failed"`
	Results   []filing.BatchResult `json:"results"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the batch state.
func (b *Batch) Snapshot() BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := BatchSnapshot{
		ID:        b.ID,
		Status:    b.Status,
		Total:     len(b.Tasks),
		Completed: len(b.Results),
		Results:   append([]filing.BatchResult(nil), b.Results...),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if snap.Results == nil {
		snap.Results = []filing.BatchResult{}
	}
	for _, r := range b.Results {
		switch r.Outcome {
		case filing.OutcomeSuccess:
			snap.Succeeded++
		case filing.OutcomeEmpty:
			snap.Empty++
		case filing.OutcomeFailed:
			snap.Failed++
		}
	}
	return snap
}

// BatchStore is a thread-safe in-memory batch registry with TTL eviction.
type BatchStore struct {
	mu      sync.Mutex
	batches map[string]*Batch
	ttl     time.Duration
}

func NewBatchStore(ttl time.Duration) *BatchStore {
	return &BatchStore{
		batches: make(map[string]*Batch),
		ttl:     ttl,
	}
}

func (s *BatchStore) Put(batch *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch
}

func (s *BatchStore) Get(id string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

// Cleanup removes expired batches.
func (s *BatchStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, batch := range s.batches {
		batch.mu.Lock()
		updated := batch.UpdatedAt
		batch.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.batches, id)
		}
	}
}
