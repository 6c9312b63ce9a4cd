package activities

import (
	"context"
	"time"

	"github.com/cobaltwave/deepresearch/internal/logadapter"
	"github.com/cobaltwave/deepresearch/internal/policy"
	"github.com/cobaltwave/deepresearch/internal/streaming"
	"go.temporal.io/sdk/activity"
	tlog "go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Activities bundles the dependencies every research-loop activity needs:
// the web capability client, the reasoning LLM client, the compiled URL
// policy, pacing limiters and a logger. It mirrors the teacher's
// internal/activities.Activities dependency-holder struct.
type Activities struct {
	webSearch  WebSearch
	webExtract WebExtract
	webScrape  WebScrape
	llm        LLM
	urlPolicy  *policy.URLFilter
	logger     *zap.Logger
	stream     *streaming.Manager // nil in eval mode: no progress events emitted

	searchLimiter  *rate.Limiter // paces search calls (spec.md §5: 1s inter-search)
	extractLimiter *rate.Limiter // paces extract calls (spec.md §5: 2s inter-URL)
}

// NewActivities wires the capability clients and policy into an Activities
// instance ready for Temporal worker registration. stream may be nil when
// the worker only ever serves eval-mode requests.
func NewActivities(search WebSearch, extract WebExtract, scrape WebScrape, llm LLM, urlPolicy *policy.URLFilter, stream *streaming.Manager, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{
		webSearch:      search,
		webExtract:     extract,
		webScrape:      scrape,
		llm:            llm,
		urlPolicy:      urlPolicy,
		stream:         stream,
		logger:         logger,
		searchLimiter:  rate.NewLimiter(rate.Every(searchPaceInterval), 1),
		extractLimiter: rate.NewLimiter(rate.Every(extractPaceInterval), 1),
	}
}

const (
	searchPaceInterval  = 1 * time.Second // spec.md §5: 1s inter-search pacing
	extractPaceInterval = 2 * time.Second // spec.md §5: 2s inter-URL pacing
)

// activityLogger returns the Temporal activity logger when running inside an
// activity context, falling back to a zap adapter otherwise (e.g. unit
// tests that call activity methods directly).
func activityLogger(ctx context.Context, fallback *zap.Logger) tlog.Logger {
	if activity.IsActivity(ctx) {
		return activity.GetLogger(ctx)
	}
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return logadapter.NewZapAdapter(fallback)
}
