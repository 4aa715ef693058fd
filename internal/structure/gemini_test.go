package structure

import (
	"strings"
	"testing"

	"filingest/internal/pagedoc"
)

func TestParseStructure(t *testing.T) {
	data := []byte(`{
		"total_pages": 10,
		"sections": [
			{"section_name": "Press Release Text", "start_page": 1, "end_page": 3, "section_type": "text", "has_financial_data": false},
			{"section_name": "Consolidated Statements of Income", "start_page": 4, "end_page": 6, "section_type": "table", "has_financial_data": true}
		]
	}`)

	st, err := parseStructure(data, 10)
	if err != nil {
		t.Fatalf("parseStructure: %v", err)
	}
	if st.TotalPages != 10 {
		t.Errorf("total pages = %d, expected 10", st.TotalPages)
	}
	if len(st.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(st.Sections))
	}
	if st.Sections[1].Name != "Consolidated Statements of Income" || !st.Sections[1].HasData {
		t.Errorf("unexpected second section: %+v", st.Sections[1])
	}
}

func TestParseStructure_DropsInvalidRanges(t *testing.T) {
	data := []byte(`{
		"sections": [
			{"section_name": "Inverted", "start_page": 5, "end_page": 2},
			{"section_name": "Zero Start", "start_page": 0, "end_page": 3},
			{"section_name": "Beyond Document", "start_page": 50, "end_page": 55},
			{"section_name": "Clamped", "start_page": 8, "end_page": 99},
			{"section_name": "Valid", "start_page": 1, "end_page": 4}
		]
	}`)

	st, err := parseStructure(data, 10)
	if err != nil {
		t.Fatalf("parseStructure: %v", err)
	}
	if st.TotalPages != 10 {
		t.Errorf("expected total pages to default to document count, got %d", st.TotalPages)
	}
	if len(st.Sections) != 2 {
		t.Fatalf("expected 2 surviving sections, got %d: %+v", len(st.Sections), st.Sections)
	}
	if st.Sections[0].Name != "Clamped" || st.Sections[0].EndPage != 10 {
		t.Errorf("expected end page clamped to 10, got %+v", st.Sections[0])
	}
}

func TestParseStructure_BadJSON(t *testing.T) {
	if _, err := parseStructure([]byte("not json"), 5); err == nil {
		t.Error("expected parse error")
	}
}

func TestBuildAnalysisPrompt_MarksPages(t *testing.T) {
	doc := pagedoc.New("/tmp/x.pdf", []string{"first page", "second page"})
	prompt := buildAnalysisPrompt(doc)

	for _, want := range []string{"--- Page 1 ---", "--- Page 2 ---", "first page", "second page", "2 pages"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPrompt_TruncatesLongPages(t *testing.T) {
	long := strings.Repeat("x", pageTextLimit+500)
	doc := pagedoc.New("/tmp/x.pdf", []string{long})
	prompt := buildAnalysisPrompt(doc)

	if !strings.Contains(prompt, "[page truncated]") {
		t.Error("expected long page to be truncated")
	}
	if strings.Contains(prompt, long) {
		t.Error("full page text should not appear in prompt")
	}
}
