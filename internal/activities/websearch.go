package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// WebSearch, WebExtract and WebScrape are the external capability interfaces
// named in spec.md §6. The core depends only on these three methods; the
// concrete web-search/web-extract service (Firecrawl or equivalent) is an
// external collaborator reached through FIRECRAWL_API_KEY.
type WebSearch interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

type WebExtract interface {
	Extract(ctx context.Context, urls []string, prompt string) (ExtractResult, error)
}

type WebScrape interface {
	ScrapeURL(ctx context.Context, url string) (ScrapeResult, error)
}

// ExtractResult carries raw per-item payloads; the Extractor (not this
// client) is responsible for normalizing list/string shapes into findings.
type ExtractResult struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
}

type ScrapeResult struct {
	Success  bool   `json:"success"`
	Markdown string `json:"markdown"`
}

// FirecrawlClient implements WebSearch, WebExtract and WebScrape against the
// Firecrawl HTTP API using FIRECRAWL_API_KEY (spec.md §6).
type FirecrawlClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewFirecrawlClient builds a client reading FIRECRAWL_API_KEY and an
// optional FIRECRAWL_BASE_URL override (defaults to the hosted API).
func NewFirecrawlClient(timeout time.Duration) *FirecrawlClient {
	base := os.Getenv("FIRECRAWL_BASE_URL")
	if base == "" {
		base = "https://api.firecrawl.dev/v1"
	}
	return &FirecrawlClient{
		BaseURL: base,
		APIKey:  os.Getenv("FIRECRAWL_API_KEY"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *FirecrawlClient) do(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d from web capability service", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Search implements WebSearch.
func (c *FirecrawlClient) Search(ctx context.Context, query string) (SearchResult, error) {
	var out SearchResult
	if err := c.do(ctx, "/search", map[string]string{"query": query}, &out); err != nil {
		return SearchResult{}, err
	}
	return out, nil
}

// Extract implements WebExtract.
func (c *FirecrawlClient) Extract(ctx context.Context, urls []string, prompt string) (ExtractResult, error) {
	var out ExtractResult
	body := map[string]interface{}{"urls": urls, "prompt": prompt}
	if err := c.do(ctx, "/extract", body, &out); err != nil {
		return ExtractResult{}, err
	}
	return out, nil
}

// ScrapeURL implements WebScrape.
func (c *FirecrawlClient) ScrapeURL(ctx context.Context, url string) (ScrapeResult, error) {
	var out ScrapeResult
	if err := c.do(ctx, "/scrape", map[string]string{"url": url}, &out); err != nil {
		return ScrapeResult{}, err
	}
	return out, nil
}
