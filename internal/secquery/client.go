// Package secquery finds 8-K earnings filings through the SEC full-text
// search API. A filing that cannot be found is a normal outcome, not an
// error.
package secquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"filingest/internal/filing"
)

// DefaultBaseURL is the hosted search endpoint.
const DefaultBaseURL = "https://api.sec-api.io"

// discoveryDelay spaces consecutive search calls to stay under the API's
// rate limit.
const discoveryDelay = 200 * time.Millisecond

// Client talks to the filing search API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

type searchRequest struct {
	Query string           `json:"query"`
	From  string           `json:"from"`
	Size  string           `json:"size"`
	Sort  []map[string]any `json:"sort"`
}

type searchResponse struct {
	Filings []struct {
		FiledAt             string `json:"filedAt"`
		DocumentFormatFiles []struct {
			Type        string `json:"type"`
			DocumentURL string `json:"documentUrl"`
		} `json:"documentFormatFiles"`
	} `json:"filings"`
}

// FindFiling looks up the 8-K Item 2.02 filing for one ticker/quarter/year
// and returns a task pointing at its earnings exhibit. Exhibit 99.2 is
// preferred over 99.1. Returns (nil, nil) when nothing suitable exists.
func (c *Client) FindFiling(ctx context.Context, ticker string, quarter, year int) (*filing.Task, error) {
	if quarter < 1 || quarter > 4 {
		return nil, fmt.Errorf("quarter %d out of range", quarter)
	}

	from, to := filingWindow(quarter, year)
	query := fmt.Sprintf(`ticker:%s AND formType:"8-K" AND "Item 2.02" AND filedAt:[%s TO %s]`, ticker, from, to)

	body, err := json.Marshal(searchRequest{
		Query: query,
		From:  "0",
		Size:  "10",
		Sort:  []map[string]any{{"filedAt": map[string]string{"order": "desc"}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("filing search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("filing search status %d: %s", resp.StatusCode, string(respBody))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	for _, exhibit := range []string{"99.2", "99.1"} {
		for _, f := range result.Filings {
			for _, doc := range f.DocumentFormatFiles {
				if matchesExhibit(doc.Type, exhibit) {
					return &filing.Task{
						Ticker:  ticker,
						Quarter: quarter,
						Year:    year,
						FiledAt: f.FiledAt,
						Exhibit: exhibit,
						URL:     doc.DocumentURL,
					}, nil
				}
			}
		}
	}

	c.log.Warn("no suitable exhibit found", "ticker", ticker, "quarter", quarter, "year", year)
	return nil, nil
}

// FindAll discovers filings for a ticker across years and quarters,
// skipping periods with no match.
func (c *Client) FindAll(ctx context.Context, ticker string, years, quarters []int) ([]filing.Task, error) {
	var tasks []filing.Task
	for _, year := range years {
		for _, quarter := range quarters {
			task, err := c.FindFiling(ctx, ticker, quarter, year)
			if err != nil {
				c.log.Error("filing search failed", "ticker", ticker, "quarter", quarter, "year", year, "error", err)
				continue
			}
			if task != nil {
				tasks = append(tasks, *task)
			}
			select {
			case <-time.After(discoveryDelay):
			case <-ctx.Done():
				return tasks, ctx.Err()
			}
		}
	}
	return tasks, nil
}

// filingWindow returns the filed-at date range for an earnings release of
// the given fiscal quarter. Q4 releases spill into January of the next
// year.
func filingWindow(quarter, year int) (string, string) {
	months := map[int][2]int{
		1: {3, 4},
		2: {6, 7},
		3: {9, 10},
		4: {12, 1},
	}
	m := months[quarter]
	endYear := year
	if quarter == 4 {
		endYear = year + 1
	}
	return fmt.Sprintf("%d-%02d-01", year, m[0]), fmt.Sprintf("%d-%02d-30", endYear, m[1])
}

// matchesExhibit reports whether a document type string names the given
// exhibit number, tolerating the several formats filers use.
func matchesExhibit(docType, exhibit string) bool {
	t := strings.ToLower(docType)
	compact := strings.ReplaceAll(exhibit, ".", "")
	dashed := "ex" + strings.ReplaceAll(exhibit, ".", "-")
	return strings.Contains(t, exhibit) ||
		strings.Contains(t, dashed) ||
		strings.Contains(t, "ex"+compact)
}
