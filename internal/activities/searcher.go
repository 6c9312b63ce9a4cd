package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	rmetrics "github.com/cobaltwave/deepresearch/internal/metrics"
	"github.com/cobaltwave/deepresearch/internal/tracing"
)

// ErrSearchExhausted is returned once the Searcher has used up its retry
// budget (R+1 attempts) without a single success.
var ErrSearchExhausted = errors.New("SearchExhausted")

// SearchRetries is the number of retries (R) after the first attempt,
// matching spec.md §4.1 (R=3, so up to 4 attempts total).
const SearchRetries = 3

// SearchInput is the Temporal activity input for Search.
type SearchInput struct {
	Query string `json:"query"`
}

// Search issues a search query against the WebSearch capability with
// backoff-based retry. Backoff sleeps 2000*(i+1) ms before retry i. A
// success with an empty result set is a success, not a retryable failure.
func (a *Activities) Search(ctx context.Context, in SearchInput) (SearchResult, error) {
	ctx, span := tracing.StartActivity(ctx, "search")
	defer span.End()

	logger := activityLogger(ctx, a.logger)

	var lastErr error
	for attempt := 0; attempt <= SearchRetries; attempt++ {
		if attempt > 0 {
			rmetrics.SearchRetriesTotal.Inc()
			backoff := time.Duration(2000*attempt) * time.Millisecond
			logger.Info("Search: retrying after backoff", "attempt", attempt, "backoff", backoff)
			if err := sleepCtx(ctx, backoff); err != nil {
				return SearchResult{}, err
			}
		}

		if a.searchLimiter != nil {
			if err := a.searchLimiter.Wait(ctx); err != nil {
				return SearchResult{}, err
			}
		}

		result, err := a.webSearch.Search(ctx, in.Query)
		if err == nil && result.Success {
			return result, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("search reported failure: %s", result.Error)
		}
		logger.Warn("Search: attempt failed", "attempt", attempt, "error", lastErr)
	}

	rmetrics.SearchExhaustedTotal.Inc()
	return SearchResult{}, fmt.Errorf("%w: %v", ErrSearchExhausted, lastErr)
}

// sleepCtx sleeps for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
