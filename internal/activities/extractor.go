package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	rmetrics "github.com/cobaltwave/deepresearch/internal/metrics"
	"github.com/cobaltwave/deepresearch/internal/tracing"
)

// ExtractRetries is the number of retries (after the first attempt) the
// Extractor allows on exceptions or timeouts.
const ExtractRetries = 2

// extractTimeout bounds a single extract call; exceeding it counts as a
// retryable failure, not a hard error.
const extractTimeout = 35 * time.Second

// scrapeFallbackChars is how much of a scraped page's markdown becomes the
// finding text when the extract capability returns an empty/sentinel payload.
const scrapeFallbackChars = 2000

// ExtractInput is the Temporal activity input for Extract.
type ExtractInput struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// Extract fetches constraint-focused findings from a single URL, retrying
// on exception/timeout with exponential backoff (1000*2^i ms), falling back
// to a page scrape when the extract capability returns nothing usable.
// Returns an empty slice (not an error) on final failure, per spec: a single
// bad URL never aborts the hop.
func (a *Activities) Extract(ctx context.Context, in ExtractInput) ([]Finding, error) {
	ctx, span := tracing.StartActivity(ctx, "extract")
	defer span.End()

	logger := activityLogger(ctx, a.logger)

	var findings []Finding
	for attempt := 0; attempt <= ExtractRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1000*pow2(attempt-1)) * time.Millisecond
			logger.Info("Extract: retrying after backoff", "url", in.URL, "attempt", attempt, "backoff", backoff)
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, extractTimeout)
		result, err := a.webExtract.Extract(callCtx, []string{in.URL}, in.Prompt)
		cancel()

		if err != nil {
			if callCtx.Err() != nil {
				rmetrics.ExtractTimeoutsTotal.Inc()
			}
			logger.Warn("Extract: attempt failed", "url", in.URL, "attempt", attempt, "error", err)
			continue
		}
		if !result.Success {
			logger.Warn("Extract: capability reported failure", "url", in.URL, "attempt", attempt)
			continue
		}

		findings = normalizeExtractPayload(result.Data, in.URL)
		if len(findings) > 0 && !isSentinelEmpty(result.Data) {
			return findings, nil
		}

		// Empty or sentinel payload: fall back to a raw scrape rather than
		// retrying the same extract call again.
		scraped, scrapeErr := a.fallbackScrape(ctx, in.URL)
		if scrapeErr == nil && len(scraped) > 0 {
			return scraped, nil
		}
		logger.Warn("Extract: empty payload and scrape fallback unavailable", "url", in.URL, "attempt", attempt)
		return []Finding{}, nil
	}

	return []Finding{}, nil
}

func (a *Activities) fallbackScrape(ctx context.Context, url string) ([]Finding, error) {
	rmetrics.ExtractScrapeFallbackTotal.Inc()
	scraped, err := a.webScrape.ScrapeURL(ctx, url)
	if err != nil || !scraped.Success || scraped.Markdown == "" {
		return nil, fmt.Errorf("scrape fallback unavailable for %s", url)
	}
	text := scraped.Markdown
	if len(text) > scrapeFallbackChars {
		text = text[:scrapeFallbackChars]
	}
	return []Finding{{Text: text, Source: url}}, nil
}

// normalizeExtractPayload maps a list payload per-item and a string payload
// as a single item into findings tagged with their source URL.
func normalizeExtractPayload(data json.RawMessage, source string) []Finding {
	if len(data) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString == "" {
			return nil
		}
		return []Finding{{Text: asString, Source: source}}
	}

	var asList []interface{}
	if err := json.Unmarshal(data, &asList); err == nil {
		out := make([]Finding, 0, len(asList))
		for _, item := range asList {
			switch v := item.(type) {
			case string:
				if v != "" {
					out = append(out, Finding{Text: v, Source: source})
				}
			default:
				if b, err := json.Marshal(v); err == nil {
					out = append(out, Finding{Text: string(b), Source: source})
				}
			}
		}
		return out
	}

	// Object payload: keep the raw JSON text as a single finding so the
	// Analyzer/Synthesizer can substring-search constraintMatches values.
	return []Finding{{Text: string(data), Source: source}}
}

// isSentinelEmpty detects the documented empty-result sentinel (a JSON
// object/array containing a "names" key with an empty array) that the
// extract capability returns in place of a clean failure. Deliberately a
// brittle substring match rather than a structural check: any payload whose
// serialized text contains `"names":[]` anywhere matches (so a payload with
// other useful fields can be overmatched), and a spaced form such as
// `"names": []` does not.
func isSentinelEmpty(data json.RawMessage) bool {
	return strings.Contains(string(data), `"names":[]`)
}

func pow2(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 2
	}
	return result
}

// ExtractManyInput is the Temporal activity input for ExtractMany.
type ExtractManyInput struct {
	URLs   []string `json:"urls"`
	Prompt string   `json:"prompt"`
}

// ExtractMany filters urls through the URL policy, then extracts
// sequentially with a 2-second pace between URLs, aggregating all non-empty
// results. A URL rejected by the filter or yielding no findings is simply
// absent from the result — it never aborts the batch.
func (a *Activities) ExtractMany(ctx context.Context, in ExtractManyInput) ([]Finding, error) {
	logger := activityLogger(ctx, a.logger)

	allowed := in.URLs
	if a.urlPolicy != nil {
		allowed = a.urlPolicy.FilterURLs(ctx, in.URLs)
	}
	if len(allowed) < len(in.URLs) {
		logger.Info("ExtractMany: url filter rejected candidates", "rejected", len(in.URLs)-len(allowed))
	}

	var all []Finding
	for _, url := range allowed {
		// Wait before every URL, the first included: the limiter starts with
		// one idle token, so the first URL consumes it and each later URL
		// starts at least extractPaceInterval after the previous one.
		if a.extractLimiter != nil {
			if err := a.extractLimiter.Wait(ctx); err != nil {
				return all, err
			}
		}
		findings, err := a.Extract(ctx, ExtractInput{URL: url, Prompt: in.Prompt})
		if err != nil {
			logger.Warn("ExtractMany: extract failed", "url", url, "error", err)
			continue
		}
		all = append(all, findings...)
	}
	return all, nil
}
