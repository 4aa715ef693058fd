package fetch

import (
	"fmt"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// pdfPages extracts per-page text from a PDF. It tries the Go library
// first, then falls back to pdftotext if enabled and available.
func pdfPages(path string, fallbackPdftotext bool) ([]string, error) {
	pages, err := extractPDFPages(path)
	if err != nil && fallbackPdftotext {
		pages, err = extractPdftotextPages(path)
	}
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotextPages(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds.
	return strings.Split(string(out), "\f"), nil
}
