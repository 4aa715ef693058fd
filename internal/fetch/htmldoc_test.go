package fetch

import (
	"strings"
	"testing"
)

func TestHTMLText_ExtractsBlocksAndRows(t *testing.T) {
	doc := `<html><head><title>Q2 Release</title><style>p{color:red}</style></head>
<body>
<h1>Acme Reports Second Quarter Results</h1>
<p>Revenues grew to a record level.</p>
<table>
<tr><th>Metric</th><th>Q2</th></tr>
<tr><td>Revenues</td><td>$92.9 billion</td></tr>
</table>
<script>alert("x")</script>
</body></html>`

	text, err := htmlText([]byte(doc))
	if err != nil {
		t.Fatalf("htmlText: %v", err)
	}
	if !strings.Contains(text, "Acme Reports Second Quarter Results") {
		t.Errorf("missing heading text: %q", text)
	}
	if !strings.Contains(text, "Revenues\t$92.9 billion") {
		t.Errorf("table row not kept on one line: %q", text)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color:red") {
		t.Errorf("script/style content leaked: %q", text)
	}
}

func TestPaginate_FormFeedsWin(t *testing.T) {
	pages := paginate("page one\fpage two\f\fpage three")
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %q", len(pages), pages)
	}
	if pages[1] != "page two" {
		t.Errorf("expected %q, got %q", "page two", pages[1])
	}
}

func TestPaginate_PacksBlocksUpToBudget(t *testing.T) {
	block := strings.Repeat("x", 1500)
	text := strings.Join([]string{block, block, block, block}, "\n\n")

	pages := paginate(text)
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages for 4x1500 chars at %d budget, got %d", pageCharBudget, len(pages))
	}
	for i, p := range pages {
		if len(p) > pageCharBudget+2 {
			t.Errorf("page %d exceeds budget: %d chars", i, len(p))
		}
	}
}

func TestPaginate_Empty(t *testing.T) {
	if pages := paginate("   \n\n  "); pages != nil {
		t.Errorf("expected nil for blank text, got %q", pages)
	}
}
