package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"filingest/internal/filing"
)

// Processor runs one filing to completion.
type Processor interface {
	Process(ctx context.Context, task filing.Task) filing.BatchResult
}

// Scheduler fans a batch of filings out over a bounded worker pool and
// reports results in submission order.
type Scheduler struct {
	proc Processor
	log  *slog.Logger

	// Notify, when set, is called once per completed filing, in
	// completion order.
	Notify func(filing.BatchResult)
}

func NewScheduler(proc Processor, log *slog.Logger) *Scheduler {
	return &Scheduler{proc: proc, log: log}
}

// Run processes every task with at most concurrency filings in flight.
// One slow or failing filing never blocks the rest; a panic inside a
// filing is contained to that filing's result.
func (s *Scheduler) Run(ctx context.Context, tasks []filing.Task, concurrency int) []filing.BatchResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]filing.BatchResult, len(tasks))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, task := range tasks {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, task filing.Task) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("filing panicked", "filing", task.Label(), "panic", r)
					results[i] = filing.BatchResult{
						Task:    task,
						Outcome: filing.OutcomeFailed,
						Reason:  fmt.Sprintf("panic: %v", r),
					}
					if s.Notify != nil {
						s.Notify(results[i])
					}
				}
			}()

			results[i] = s.proc.Process(ctx, task)
			if s.Notify != nil {
				s.Notify(results[i])
			}
		}(i, task)
	}
	wg.Wait()

	return results
}
