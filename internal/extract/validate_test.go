package extract

import (
	"strings"
	"testing"

	"filingest/internal/filing"
)

func TestCleanMetric_StripsQuotesAndWhitespace(t *testing.T) {
	m := &filing.Metric{
		MetricType:    "Results",
		Metric:        `  "Revenue  -  OptumHealth" `,
		OriginalValue: " $12.26 ",
		CleanedValue:  "12.26",
	}
	if !CleanMetric(m) {
		t.Fatal("expected metric to be kept")
	}
	if m.Metric != "Revenue - OptumHealth" {
		t.Errorf("metric name not cleaned: %q", m.Metric)
	}
	if m.OriginalValue != "$12.26" {
		t.Errorf("original value not trimmed: %q", m.OriginalValue)
	}
}

func TestCleanMetric_DropsEmptyRows(t *testing.T) {
	tests := []filing.Metric{
		{Metric: "", OriginalValue: "$5"},
		{Metric: "Revenue", OriginalValue: ""},
		{Metric: `""`, OriginalValue: "$5"},
	}
	for i, m := range tests {
		m := m
		if CleanMetric(&m) {
			t.Errorf("case %d: expected row to be dropped: %+v", i, m)
		}
	}
}

func TestCleanMetric_NormalizesMetricType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Guidance", "Guidance"},
		{"guidance", "Guidance"},
		{"Results", "Results"},
		{"results", "Results"},
		{"historical", "Results"},
		{"", "Results"},
	}
	for _, tt := range tests {
		m := &filing.Metric{MetricType: tt.in, Metric: "Revenue", OriginalValue: "$5"}
		if !CleanMetric(m) {
			t.Fatalf("type %q: expected row to be kept", tt.in)
		}
		if m.MetricType != tt.want {
			t.Errorf("type %q: got %q, expected %q", tt.in, m.MetricType, tt.want)
		}
	}
}

func TestCleanMetric_Nil(t *testing.T) {
	if CleanMetric(nil) {
		t.Error("expected nil metric to be dropped")
	}
}

func TestStripCodeBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"rows\":[]}\n```", `{"rows":[]}`},
		{"```\n[]\n```", "[]"},
		{`{"rows":[]}`, `{"rows":[]}`},
		{"  []  ", "[]"},
	}
	for _, tt := range tests {
		if got := StripCodeBlock(tt.in); got != tt.want {
			t.Errorf("StripCodeBlock(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildChunkPrompt_IncludesContext(t *testing.T) {
	prompt := BuildChunkPrompt(Request{
		Ticker:    "THC",
		Quarter:   2,
		Year:      2023,
		StartPage: 7,
		EndPage:   14,
		Sections:  []string{"Segment Results", "Guidance"},
		Text:      "page text here",
	})

	for _, want := range []string{"pages 7-14", "THC Q2 2023", "Segment Results; Guidance", "page text here"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
