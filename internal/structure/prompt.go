package structure

import (
	"fmt"
	"strings"

	"filingest/internal/pagedoc"
)

// Per-page character cap when inlining document text into the analysis
// prompt. Structure analysis only needs headings and table shapes, not
// every row.
const pageTextLimit = 3000

const analysisPrompt = `Analyze this financial document and identify its logical structure.

Your task:
1. Identify all major sections (tables, text blocks, guidance sections, etc.)
2. Note the START and END page for each section
3. Determine if each section contains financial data worth extracting

Guidelines:
- A "section" should be a complete, logical unit (e.g., one full table, one guidance block)
- DO NOT split tables across sections - if a table spans multiple pages, the section should include ALL those pages
- Sections can vary in length (1-10 pages)
- Prioritize sections with financial metrics (numbers, percentages, dollar amounts)
- For text-only pages (disclaimers, narratives), you can group multiple pages into one section

Output all identified sections in the order they appear, as a JSON object:
{"total_pages": N, "sections": [{"section_name": "...", "start_page": N, "end_page": N, "section_type": "table|text|mixed", "has_financial_data": true|false}, ...]}

Page numbers are 1-indexed and must not exceed the total page count.`

// buildAnalysisPrompt inlines the document page by page, with page
// markers so the model can report accurate page ranges.
func buildAnalysisPrompt(doc *pagedoc.Document) string {
	var sb strings.Builder
	sb.WriteString(analysisPrompt)
	sb.WriteString(fmt.Sprintf("\n\nThe document has %d pages.\n", doc.PageCount()))
	for n := 1; n <= doc.PageCount(); n++ {
		text, err := doc.PageText(n)
		if err != nil {
			continue
		}
		if len(text) > pageTextLimit {
			text = text[:pageTextLimit] + "\n[page truncated]"
		}
		sb.WriteString(fmt.Sprintf("\n--- Page %d ---\n", n))
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}
