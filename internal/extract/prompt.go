package extract

import (
	"fmt"
	"strings"
)

const ExtractionPrompt = `Task: Extract financial data from the provided earnings release pages into a structured table.

FIRST: Identify the primary quarter and year this document covers from the title, header, and main financial tables, and use it as the baseline for all period references.

1. Extraction scope:
- Actual results: scan every financial table (income statement, balance sheet, cash flow, segment results, membership) and extract ALL rows, but ONLY the column for the current quarter. Ignore prior-year, year-to-date, sequential, and percentage-change columns.
- Guidance: extract ALL forward-looking projections from both text and guidance tables.
- Skip derivative metrics (growth rates, deltas) when the absolute value is present.

2. Metric type: classify each row as "Results" (historical) or "Guidance" (forward-looking).

3. Metric names:
- For nested tables, concatenate the parent header and row label with " - " (e.g. "Revenue - OptumHealth"), and apply it to every row in that table including totals ("Revenue - Total", not "Total").
- Remove quotation marks, footnote markers like "(a)", and empty parentheses.
- Convert parenthetical descriptors to hyphens ("Medical Cost Ratio (Standardized)" becomes "Medical Cost Ratio - Standardized").
- Standardize "Income (Loss)" variants to "Income/Loss" and "Gain (Loss)" variants to "Gain/Loss".
- Do not put period descriptors or denominations in the metric name.

4. Denomination: put scale indicators ("in millions", "per share") in the denomination field, empty when unspecified.

5. Values:
- original_value is the raw text exactly as printed ("$12.26", "90.1% to 90.5%").
- cleaned_value expands words to numbers ($110b becomes 110000000000) and percentages to decimals (90.5% becomes 0.905).
- Values in parentheses and losses are negative; gains are positive.
- High/low columns become a single range row ("100000000 to 110000000"), never two rows.
- "Flat" or "relatively flat" becomes 0.

6. Periods: "Q1 YYYY" through "Q4 YYYY" for results, "FY YYYY" for guidance, consistently across the whole document.

7. Table/section names: Title Case, with years, ordinal quarter words, and "(Unaudited)" removed ("Second Quarter 2021 Results" becomes "Quarterly Results").

8. Notes: a self-contained description of what the metric represents — accounting method, segment scope, calculation basis, and a relative temporal reference ("current quarter", "prior year same quarter", "full year") instead of literal dates.

9. page_number is the page number printed in the document where the row was found.

Respond with ONLY a JSON object {"rows": [...]}, where each row has the fields: metric_type, period_described, table_section, metric, original_value, cleaned_value, unit, denomination, notes, page_number.`

// BuildChunkPrompt assembles the extraction prompt for one chunk,
// including its page range and target period so the model keeps period
// naming consistent across chunks.
func BuildChunkPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(ExtractionPrompt)
	sb.WriteString(fmt.Sprintf("\n\nCONTEXT: This chunk contains pages %d-%d of the original document. Reported page numbers must fall within this range or match the page numbers visible in headers/footers.", req.StartPage, req.EndPage))
	if req.Ticker != "" && req.Quarter >= 1 && req.Quarter <= 4 {
		sb.WriteString(fmt.Sprintf("\n\nTARGET PERIOD: This is a %s Q%d %d filing. All period references must use this naming (e.g. %q, not \"%dQ%d\").",
			req.Ticker, req.Quarter, req.Year, fmt.Sprintf("Q%d %d", req.Quarter, req.Year), req.Quarter, req.Year%100))
	}
	if len(req.Sections) > 0 {
		sb.WriteString("\n\nSections in this chunk: ")
		sb.WriteString(strings.Join(req.Sections, "; "))
	}
	sb.WriteString("\n\n---\n")
	sb.WriteString(req.Text)
	return sb.String()
}
