package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "filingest",
	Short: "Batch financial data extraction from SEC earnings filings",
	Long: `Filingest finds 8-K earnings exhibits, splits them into
section-aligned chunks, extracts financial metrics with Gemini, and
writes one CSV per filing.`,
}
