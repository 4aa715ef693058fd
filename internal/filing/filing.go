// Package filing defines the data model shared across the extraction
// pipeline: document structure, page-range chunks, extracted metric rows,
// and per-task batch outcomes.
package filing

import "fmt"

// SectionKind classifies the content of a document section.
type SectionKind string

const (
	SectionTable SectionKind = "table"
	SectionText  SectionKind = "text"
	SectionMixed SectionKind = "mixed"
)

// Section is a logical, non-splittable region of a filing identified by
// structure analysis. Page numbers are 1-indexed and inclusive.
type Section struct {
	Name      string      `json:"section_name"`
	StartPage int         `json:"start_page"`
	EndPage   int         `json:"end_page"`
	Kind      SectionKind `json:"section_type"`
	HasData   bool        `json:"has_financial_data"`
}

// Pages returns the section's page span.
func (s Section) Pages() int {
	return s.EndPage - s.StartPage + 1
}

// Structure is the complete structure map of one document, in reading order.
type Structure struct {
	TotalPages int       `json:"total_pages"`
	Sections   []Section `json:"sections"`
}

// Chunk is a page-range work unit assembled from one or more whole sections.
// Its span stays within the configured page budget except when a single
// section alone exceeds it.
type Chunk struct {
	StartPage int
	EndPage   int
	Sections  []string
	HasData   bool
}

// Pages returns the chunk's page span.
func (c Chunk) Pages() int {
	return c.EndPage - c.StartPage + 1
}

// Metric is one extracted row of financial data. The pipeline treats rows
// as opaque units to concatenate; only light cleanup happens downstream.
type Metric struct {
	MetricType    string `json:"metric_type"`
	Period        string `json:"period_described"`
	TableSection  string `json:"table_section"`
	Metric        string `json:"metric"`
	OriginalValue string `json:"original_value"`
	CleanedValue  string `json:"cleaned_value"`
	Unit          string `json:"unit"`
	Denomination  string `json:"denomination"`
	Notes         string `json:"notes"`
	PageNumber    string `json:"page_number"`
}

// Dataset is the merged extraction output for one document.
type Dataset []Metric

// Task identifies one filing to process.
type Task struct {
	Ticker  string `json:"ticker"`
	Quarter int    `json:"quarter"`
	Year    int    `json:"year"`
	FiledAt string `json:"filed_at,omitempty"`
	Exhibit string `json:"exhibit,omitempty"`
	URL     string `json:"url"`
}

// Label returns a short human-readable identifier, e.g. "THC Q2 2023".
func (t Task) Label() string {
	return fmt.Sprintf("%s Q%d %d", t.Ticker, t.Quarter, t.Year)
}

// Outcome is the terminal state of one task in a batch.
type Outcome string

const (
	// OutcomeSuccess means at least one metric row was extracted and persisted.
	OutcomeSuccess Outcome = "success"
	// OutcomeEmpty means the pipeline completed but extracted nothing.
	// This is not a failure.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means an unrecovered fault stopped the document pipeline.
	OutcomeFailed Outcome = "failed"
)

// BatchResult is the per-task outcome of a batch run. The scheduler returns
// exactly one result per submitted task, in submission order.
type BatchResult struct {
	Task    Task    `json:"task"`
	Outcome Outcome `json:"outcome"`
	Records Dataset `json:"-"`
	Rows    int     `json:"rows"`
	Reason  string  `json:"reason,omitempty"`
	Output  string  `json:"output,omitempty"`
}

// Failed reports whether the task ended in a failure outcome.
func (r BatchResult) Failed() bool {
	return r.Outcome == OutcomeFailed
}
