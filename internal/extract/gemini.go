// Package extract calls Gemini to pull structured financial metrics out of
// a materialized page-range chunk.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"filingest/internal/filing"
)

// Request carries one chunk's content and context into an extraction call.
type Request struct {
	Ticker    string
	Quarter   int
	Year      int
	StartPage int
	EndPage   int
	Sections  []string
	Text      string
}

// Extractor runs per-chunk extraction against a Gemini model.
type Extractor struct {
	model *genai.GenerativeModel
	stats *LLMStats
	log   *slog.Logger
}

func NewExtractor(client *genai.Client, modelName string, stats *LLMStats, log *slog.Logger) *Extractor {
	m := client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	return &Extractor{model: m, stats: stats, log: log}
}

// ExtractChunk sends one chunk to the model and parses the returned rows.
// Transient API failures come back as *RetryableError.
func (e *Extractor) ExtractChunk(ctx context.Context, req Request) ([]filing.Metric, error) {
	prompt := BuildChunkPrompt(req)

	start := time.Now()
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	e.stats.Record("extraction", time.Since(start).Milliseconds())
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500) {
			return nil, &RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	text := ResponseText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	text = StripCodeBlock(text)

	var payload struct {
		Rows []filing.Metric `json:"rows"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err == nil && payload.Rows != nil {
		return payload.Rows, nil
	}
	// Some responses come back as a bare array instead of {"rows": [...]}.
	var rows []filing.Metric
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w (raw: %s)", err, truncate(text, 200))
	}
	return rows, nil
}

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeBlock removes a markdown code fence the model sometimes wraps
// around its JSON.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
