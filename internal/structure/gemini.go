// Package structure maps a filing document into named page-range sections
// using a fast Gemini model, ahead of chunk planning.
package structure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"filingest/internal/extract"
	"filingest/internal/filing"
	"filingest/internal/pagedoc"
)

// Analyzer identifies the logical sections of a filing document.
type Analyzer struct {
	model *genai.GenerativeModel
	stats *extract.LLMStats
	log   *slog.Logger
}

func NewAnalyzer(client *genai.Client, modelName string, stats *extract.LLMStats, log *slog.Logger) *Analyzer {
	m := client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	return &Analyzer{model: m, stats: stats, log: log}
}

// Analyze asks the model for a section map of the document. Transient API
// failures come back as *extract.RetryableError.
func (a *Analyzer) Analyze(ctx context.Context, doc *pagedoc.Document) (*filing.Structure, error) {
	prompt := buildAnalysisPrompt(doc)

	start := time.Now()
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	a.stats.Record("structure", time.Since(start).Milliseconds())
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500) {
			return nil, &extract.RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("structure analysis call: %w", err)
	}

	text := extract.StripCodeBlock(extract.ResponseText(resp))
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	st, err := parseStructure([]byte(text), doc.PageCount())
	if err != nil {
		return nil, err
	}

	a.log.Info("document structure analyzed",
		"path", doc.Path(),
		"total_pages", st.TotalPages,
		"sections", len(st.Sections))
	return st, nil
}

// parseStructure decodes the model's section map and discards sections with
// out-of-range or inverted page ranges.
func parseStructure(data []byte, pageCount int) (*filing.Structure, error) {
	var st filing.Structure
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse structure json: %w", err)
	}
	if st.TotalPages <= 0 {
		st.TotalPages = pageCount
	}

	kept := st.Sections[:0]
	for _, sec := range st.Sections {
		if sec.StartPage < 1 || sec.EndPage < sec.StartPage || sec.StartPage > pageCount {
			continue
		}
		if sec.EndPage > pageCount {
			sec.EndPage = pageCount
		}
		kept = append(kept, sec)
	}
	st.Sections = kept
	return &st, nil
}
