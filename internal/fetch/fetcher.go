// Package fetch downloads a filing exhibit into the per-document workspace
// and turns it into a paged document. HTML and plain-text exhibits are
// paginated; PDF exhibits are read page by page.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"filingest/internal/filing"
	"filingest/internal/pagedoc"
)

// maxExhibitBytes caps how much of an exhibit is read. Earnings releases
// are small; anything beyond this is not a filing we want.
const maxExhibitBytes = 64 << 20

// Fetcher downloads filing exhibits.
type Fetcher struct {
	httpClient        *http.Client
	userAgent         string
	fallbackPdftotext bool
	log               *slog.Logger
}

func New(userAgent string, timeout time.Duration, fallbackPdftotext bool, log *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{
		httpClient:        &http.Client{Timeout: timeout},
		userAgent:         userAgent,
		fallbackPdftotext: fallbackPdftotext,
		log:               log,
	}
}

// Fetch downloads the task's exhibit into dir and returns a paged document.
// The source file lives inside dir, so workspace cleanup removes it.
func (f *Fetcher) Fetch(ctx context.Context, task filing.Task, dir string) (*pagedoc.Document, error) {
	if task.URL == "" {
		return nil, fmt.Errorf("task %s has no document url", task.Label())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// SEC requires a contact-identifying User-Agent.
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download exhibit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download exhibit: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExhibitBytes))
	if err != nil {
		return nil, fmt.Errorf("read exhibit: %w", err)
	}

	ext := exhibitExt(task.URL)
	srcPath := filepath.Join(dir, exhibitFilename(task, ext))
	if err := os.WriteFile(srcPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write exhibit: %w", err)
	}

	var pages []string
	switch ext {
	case ".pdf":
		pages, err = pdfPages(srcPath, f.fallbackPdftotext)
		if err != nil {
			return nil, fmt.Errorf("extract pdf pages: %w", err)
		}
	case ".htm", ".html":
		text, err := htmlText(data)
		if err != nil {
			return nil, fmt.Errorf("parse html exhibit: %w", err)
		}
		pages = paginate(text)
	default:
		// .txt and anything unrecognized: treat as plain text.
		pages = paginate(string(data))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("exhibit %s produced no pages", task.Label())
	}

	f.log.Info("fetched exhibit",
		"ticker", task.Ticker,
		"quarter", task.Quarter,
		"year", task.Year,
		"pages", len(pages),
		"bytes", len(data),
	)
	return pagedoc.New(srcPath, pages), nil
}

func exhibitExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.ToLower(path.Ext(rawURL))
	}
	return strings.ToLower(path.Ext(u.Path))
}

func exhibitFilename(task filing.Task, ext string) string {
	exhibit := strings.ReplaceAll(task.Exhibit, ".", "")
	if exhibit == "" {
		exhibit = "unknown"
	}
	if ext == "" {
		ext = ".txt"
	}
	name := fmt.Sprintf("%s_Q%d_%d_ex%s%s", task.Ticker, task.Quarter, task.Year, exhibit, ext)
	if len(task.FiledAt) >= 10 {
		name = fmt.Sprintf("%s_Q%d_%d_%s_ex%s%s", task.Ticker, task.Quarter, task.Year, task.FiledAt[:10], exhibit, ext)
	}
	return name
}
