package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"filingest/internal/filing"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

func printHeader(w io.Writer, tickers []string, years, quarters []int, concurrency int) {
	fmt.Fprintln(w, titleStyle.Render("SEC batch financial data extraction"))
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Tickers:"), strings.Join(tickers, ", "))
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Years:"), joinInts(years))
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Quarters:"), joinInts(quarters))
	fmt.Fprintf(w, "%s %d\n\n", dimStyle.Render("Concurrency:"), concurrency)
}

func printDiscovered(w io.Writer, tasks []filing.Task) {
	fmt.Fprintf(w, "Found %d filings:\n", len(tasks))
	for _, task := range tasks {
		fmt.Fprintf(w, "  %s %s\n", task.Label(), dimStyle.Render("(Exhibit "+task.Exhibit+")"))
	}
	fmt.Fprintln(w)
}

func printResult(w io.Writer, r filing.BatchResult) {
	switch r.Outcome {
	case filing.OutcomeSuccess:
		fmt.Fprintf(w, "%s %s: %d metrics -> %s\n", successStyle.Render("ok"), r.Task.Label(), r.Rows, r.Output)
	case filing.OutcomeEmpty:
		fmt.Fprintf(w, "%s %s: no data extracted\n", warnStyle.Render("--"), r.Task.Label())
	default:
		fmt.Fprintf(w, "%s %s: %s\n", errorStyle.Render("xx"), r.Task.Label(), r.Reason)
	}
}

func printSummary(w io.Writer, results []filing.BatchResult, outputDir string) {
	var succeeded, empty, failed int
	for _, r := range results {
		switch r.Outcome {
		case filing.OutcomeSuccess:
			succeeded++
		case filing.OutcomeEmpty:
			empty++
		default:
			failed++
		}
	}

	lines := []string{
		titleStyle.Render("Batch complete"),
		fmt.Sprintf("%s %d/%d", dimStyle.Render("Succeeded:"), succeeded, len(results)),
		fmt.Sprintf("%s %d/%d", dimStyle.Render("No data:"), empty, len(results)),
		fmt.Sprintf("%s %d/%d", dimStyle.Render("Failed:"), failed, len(results)),
		dimStyle.Render("Output: " + outputDir),
	}
	fmt.Fprintln(w, "\n"+boxStyle.Render(strings.Join(lines, "\n")))
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
