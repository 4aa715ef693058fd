// Package sink writes merged extraction datasets out as CSV artifacts.
package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"filingest/internal/filing"
	"filingest/internal/storage"
)

var header = []string{
	"metric_type",
	"period_described",
	"table_section",
	"metric",
	"original_value",
	"cleaned_value",
	"unit",
	"denomination",
	"notes",
	"page_number",
}

// CSVSink serializes datasets and hands them to a storage backend.
type CSVSink struct {
	store storage.Storage
	log   *slog.Logger
}

func NewCSVSink(store storage.Storage, log *slog.Logger) *CSVSink {
	return &CSVSink{store: store, log: log}
}

// Write stores the dataset for one filing and returns the storage path.
func (s *CSVSink) Write(ctx context.Context, task filing.Task, records filing.Dataset) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range records {
		row := []string{
			m.MetricType,
			m.Period,
			m.TableSection,
			m.Metric,
			m.OriginalValue,
			m.CleanedValue,
			m.Unit,
			m.Denomination,
			m.Notes,
			m.PageNumber,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	key := Filename(task)
	path, err := s.store.Upload(ctx, key, &buf)
	if err != nil {
		return "", fmt.Errorf("store dataset: %w", err)
	}

	s.log.Info("dataset written", "filing", task.Label(), "rows", len(records), "path", path)
	return path, nil
}

// Filename builds the output name for one filing's dataset, e.g.
// "THC_Q2_2023_2023-07-24_ex99.2_extracted.csv".
func Filename(task filing.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s_Q%d_%d", task.Ticker, task.Quarter, task.Year)
	if len(task.FiledAt) >= 10 {
		fmt.Fprintf(&sb, "_%s", task.FiledAt[:10])
	}
	fmt.Fprintf(&sb, "_ex%s_extracted.csv", task.Exhibit)
	return sb.String()
}
