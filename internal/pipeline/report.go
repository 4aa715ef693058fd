package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var reportMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// BatchReport renders a Markdown summary of a completed batch.
func BatchReport(snap BatchSnapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Batch %s\n\n", snap.ID)
	fmt.Fprintf(&sb, "Status: %s\n\n", snap.Status)
	fmt.Fprintf(&sb, "- Filings: %d\n", snap.Total)
	fmt.Fprintf(&sb, "- Succeeded: %d\n", snap.Succeeded)
	fmt.Fprintf(&sb, "- No data: %d\n", snap.Empty)
	fmt.Fprintf(&sb, "- Failed: %d\n\n", snap.Failed)

	if len(snap.Results) == 0 {
		return sb.String()
	}

	sb.WriteString("| Filing | Exhibit | Outcome | Rows | Output |\n")
	sb.WriteString("|--------|---------|---------|------|--------|\n")
	for _, r := range snap.Results {
		outcome := string(r.Outcome)
		if r.Reason != "" {
			outcome = fmt.Sprintf("%s (%s)", outcome, r.Reason)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n",
			r.Task.Label(), r.Task.Exhibit, outcome, r.Rows, r.Output)
	}
	return sb.String()
}

// RenderHTML converts a Markdown report to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := reportMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
