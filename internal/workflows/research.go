// Package workflows holds the Temporal workflow that drives the bounded
// research loop: it owns ResearchState, schedules hops up to maxDepth,
// and hands off to the Synthesizer once the Stop Controller says to. Both
// modes end with the same Synthesize call; interactive mode has no separate
// long-form answer step. The loop body is
// grounded on the teacher's internal/workflows/strategies/research.go
// idiom (ActivityOptions, workflow.Go fan-out, channel-joined results)
// generalized to this spec's own state machine and activity set.
package workflows

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/cobaltwave/deepresearch/internal/activities"
	"github.com/cobaltwave/deepresearch/internal/streaming"
)

// Mode selects eval (single JSON response) vs interactive (streamed
// progress events) dispatch, per spec.md §6.
type Mode string

const (
	ModeEval        Mode = "eval"
	ModeInteractive Mode = "interactive"
)

// maxURLsPerHop bounds extraction fan-out per hop (spec.md §5).
const maxURLsPerHop = 3

// LoopBounds carries the per-mode tunables loaded from research.yaml. The
// workflow never reads config itself — Temporal workflow code must be
// deterministic, and a file read would not replay safely — so the caller
// resolves internal/config.LoopConfig into this shape before starting the
// workflow.
type LoopBounds struct {
	MaxDepth          int
	TimeLimit         time.Duration
	MaxFailedAttempts int
}

// ResearchRequest is the Temporal workflow input.
type ResearchRequest struct {
	RequestID string
	Question  string
	Mode      Mode
	Bounds    LoopBounds
}

// ResearchResult is the Temporal workflow output: the three-line answer.
type ResearchResult struct {
	Content     string
	StopReason  string
	HopsRun     int
	FindingsLen int
}

// activityTimeout bounds a single activity call. Every activity already
// implements its own retry/backoff internally (spec.md §9's "explicit
// policy object" note), so MaximumAttempts is 1 here — Temporal-level
// retries would otherwise double up on the activity's own backoff.
const activityTimeout = 3 * time.Minute

func activityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: activityTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
}

// ResearchWorkflow implements the bounded research loop of spec.md §2/§4.
func ResearchWorkflow(ctx workflow.Context, req ResearchRequest) (ResearchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ResearchWorkflow starting", "requestId", req.RequestID, "mode", req.Mode)

	ctx = activityOptions(ctx)
	interactive := req.Mode == ModeInteractive

	state := activities.NewResearchState(req.Bounds.MaxDepth, req.Bounds.MaxFailedAttempts)
	numSearches := 5
	if interactive {
		numSearches = 1
	}

	if interactive {
		if err := workflow.ExecuteActivity(ctx, "EmitProgressInit", activities.EmitProgressInitInput{
			RequestID:  req.RequestID,
			MaxDepth:   req.Bounds.MaxDepth,
			TotalSteps: state.TotalExpectedSteps,
		}).Get(ctx, nil); err != nil {
			logger.Warn("EmitProgressInit failed", "error", err)
		}
	}

	// Eval mode derives constraints once up front; the extraction prompt is
	// constraint-focused per spec.md §4.3. Interactive mode keeps a generic
	// extraction prompt (spec.md §9 open question (b)).
	var constraints []string
	if !interactive {
		var err error
		constraints, err = execConstraints(ctx, req.Question)
		if err != nil {
			logger.Warn("initial ExtractConstraints failed", "error", err)
		}
	}
	extractPrompt := buildExtractionPrompt(constraints)

	startedAt := workflow.Now(ctx)
	stopReason := activities.ReasonMaxDepth
	hop := 0
	hopsRun := 0

	for hop = 1; hop <= req.Bounds.MaxDepth; hop++ {
		state.CurrentDepth = hop
		elapsed := workflow.Now(ctx).Sub(startedAt)
		if elapsed >= req.Bounds.TimeLimit {
			stopReason = activities.ReasonTimeLimit
			break
		}

		isLastHop := hop == req.Bounds.MaxDepth
		runHop(ctx, &runHopParams{
			req:           req,
			state:         state,
			numSearches:   numSearches,
			extractPrompt: extractPrompt,
			interactive:   interactive,
			logger:        logger,
		})
		hopsRun++

		timeRemaining := req.Bounds.TimeLimit - workflow.Now(ctx).Sub(startedAt)
		analysis, err := execAnalyze(ctx, req.Question, state, timeRemaining)
		if err != nil {
			logger.Warn("Analyze failed", "error", err)
			state.FailedAttempts++
		}

		if len(analysis.Subquestions) > 0 {
			enqueueSubquestions(state, analysis.Subquestions)
		}
		if analysis.SubAnswer != "" && analysis.LastQuery != "" {
			state.SubAnswers = append(state.SubAnswers, activities.SubAnswer{Query: analysis.LastQuery, Answer: analysis.SubAnswer})
		}
		if analysis.NextSearchTopic != "" {
			state.NextSearchTopic = analysis.NextSearchTopic
		}
		if analysis.URLToSearch != "" {
			state.URLToSearch = analysis.URLToSearch
		}

		var decision activities.StopDecision
		if err := workflow.ExecuteActivity(ctx, "CheckStop", activities.StopCheckInput{
			Analysis:          analysis,
			FindingsCount:     len(state.Findings),
			CurrentDepth:      state.CurrentDepth,
			MaxDepth:          req.Bounds.MaxDepth,
			Elapsed:           workflow.Now(ctx).Sub(startedAt),
			TimeLimit:         req.Bounds.TimeLimit,
			FailedAttempts:    state.FailedAttempts,
			MaxFailedAttempts: state.MaxFailedAttempts,
			IsLastHop:         isLastHop,
		}).Get(ctx, &decision); err != nil {
			logger.Warn("CheckStop failed", "error", err)
			stopReason = activities.ReasonAnalysisStop
			break
		}

		stopReason = decision.Reason
		if decision.Stop {
			break
		}
	}

	content := finalizeAnswer(ctx, req, state, interactive, logger)

	if interactive {
		if err := workflow.ExecuteActivity(ctx, "EmitFinish", activities.EmitFinishInput{
			RequestID: req.RequestID,
			Content:   content,
		}).Get(ctx, nil); err != nil {
			logger.Warn("EmitFinish failed", "error", err)
		}
	}

	return ResearchResult{
		Content:     content,
		StopReason:  stopReason,
		HopsRun:     hopsRun,
		FindingsLen: len(state.Findings),
	}, nil
}

type runHopParams struct {
	req           ResearchRequest
	state         *activities.ResearchState
	numSearches   int
	extractPrompt string
	interactive   bool
	logger        interface {
		Warn(msg string, keyvals ...interface{})
		Info(msg string, keyvals ...interface{})
	}
}

// runHop plans the topic, runs the search/rank/extract pipeline, and
// appends findings to state. It never returns an error: a PlanTopic or
// Search failure increments state.FailedAttempts, an ExtractMany failure is
// only logged, and progress-event failures are ignored.
func runHop(ctx workflow.Context, p *runHopParams) {
	state := p.state
	req := p.req

	if p.interactive {
		_ = workflow.ExecuteActivity(ctx, "EmitDepthDelta", activities.EmitDepthDeltaInput{
			RequestID:      req.RequestID,
			Current:        state.CurrentDepth,
			MaxDepth:       req.Bounds.MaxDepth,
			CompletedSteps: state.CompletedSteps,
			TotalSteps:     state.TotalExpectedSteps,
		}).Get(ctx, nil)
	}

	var plan activities.PlanTopicResult
	answered := make(map[string]struct{}, len(state.AnsweredSubquestions))
	for k := range state.AnsweredSubquestions {
		answered[k] = struct{}{}
	}
	if err := workflow.ExecuteActivity(ctx, "PlanTopic", activities.PlanTopicInput{
		Question:             req.Question,
		Hop:                  state.CurrentDepth,
		Subquestions:         state.Subquestions,
		AnsweredSubquestions: answered,
		NextSearchTopic:      state.NextSearchTopic,
		Findings:             state.Findings,
		FailedAttempts:       state.FailedAttempts,
	}).Get(ctx, &plan); err != nil {
		p.logger.Warn("PlanTopic failed", "error", err)
		state.FailedAttempts++
		return
	}
	state.Subquestions = plan.RemainingQueue
	if plan.MarkAnswered != "" {
		state.AnsweredSubquestions[plan.MarkAnswered] = struct{}{}
	}
	topic := plan.Topic
	state.NextSearchTopic = ""

	emitActivity(ctx, p, streaming.ActivitySearch, streaming.StatusPending, fmt.Sprintf("Searching: %s", topic), false)

	anySearchOK := false
	for i := 0; i < p.numSearches; i++ {
		var result activities.SearchResult
		err := workflow.ExecuteActivity(ctx, "Search", activities.SearchInput{Query: topic}).Get(ctx, &result)
		if err != nil {
			p.logger.Warn("Search failed", "topic", topic, "error", err)
			state.FailedAttempts++
			continue
		}
		anySearchOK = true
		state.RecordSearchResponse(result.Data)
		if p.interactive {
			for _, item := range result.Data {
				_ = workflow.ExecuteActivity(ctx, "EmitSourceDelta", activities.EmitSourceDeltaInput{
					RequestID:   req.RequestID,
					URL:         item.URL,
					Title:       item.Title,
					Description: item.Description,
				}).Get(ctx, nil)
			}
		}
	}
	emitActivity(ctx, p, streaming.ActivitySearch, streaming.StatusComplete, "Search complete", anySearchOK)

	urls := state.SelectTopUnseen(maxURLsPerHop)
	if len(urls) == 0 {
		return
	}
	urlList := make([]string, len(urls))
	for i, u := range urls {
		urlList[i] = u.URL
	}

	emitActivity(ctx, p, streaming.ActivityExtract, streaming.StatusPending, "Extracting sources", false)

	var findings []activities.Finding
	if p.interactive {
		findings = extractParallel(ctx, urlList, p.extractPrompt)
	} else {
		if err := workflow.ExecuteActivity(ctx, "ExtractMany", activities.ExtractManyInput{
			URLs:   urlList,
			Prompt: p.extractPrompt,
		}).Get(ctx, &findings); err != nil {
			p.logger.Warn("ExtractMany failed", "error", err)
		}
	}
	for _, f := range findings {
		state.AppendFinding(f)
	}
	emitActivity(ctx, p, streaming.ActivityExtract, streaming.StatusComplete, fmt.Sprintf("Extracted %d findings", len(findings)), true)
	state.CompletedSteps++
}

// extractResult carries one URL's extraction outcome back through the join
// channel, mirroring the teacher's tagged channel-payload pattern for
// parallel fan-out.
type extractResult struct {
	URL      string
	Findings []activities.Finding
	Err      error
}

// extractParallel runs Extract concurrently across urls (interactive
// mode's §4.10 requirement), joining via a workflow.Channel the way the
// teacher's domain-prefetch fan-out does.
func extractParallel(ctx workflow.Context, urls []string, prompt string) []activities.Finding {
	ch := workflow.NewChannel(ctx)
	for _, u := range urls {
		url := u
		workflow.Go(ctx, func(gctx workflow.Context) {
			var findings []activities.Finding
			err := workflow.ExecuteActivity(gctx, "Extract", activities.ExtractInput{URL: url, Prompt: prompt}).Get(gctx, &findings)
			ch.Send(gctx, extractResult{URL: url, Findings: findings, Err: err})
		})
	}

	var all []activities.Finding
	for range urls {
		var res extractResult
		ch.Receive(ctx, &res)
		if res.Err != nil {
			continue
		}
		all = append(all, res.Findings...)
	}
	return all
}

func emitActivity(ctx workflow.Context, p *runHopParams, activityType streaming.ActivityType, status streaming.ActivityStatus, message string, countStep bool) {
	if !p.interactive {
		return
	}
	completed := p.state.CompletedSteps
	if countStep && status == streaming.StatusComplete {
		completed++
	}
	_ = workflow.ExecuteActivity(ctx, "EmitActivityDelta", activities.EmitActivityDeltaInput{
		RequestID:      p.req.RequestID,
		ActivityType:   activityType,
		Status:         status,
		Message:        message,
		Depth:          p.state.CurrentDepth,
		CompletedSteps: completed,
		TotalSteps:     p.state.TotalExpectedSteps,
	}).Get(ctx, nil)
}

func enqueueSubquestions(state *activities.ResearchState, generated []string) {
	for _, g := range generated {
		if _, answered := state.AnsweredSubquestions[g]; answered {
			continue
		}
		found := false
		for _, existing := range state.Subquestions {
			if existing == g {
				found = true
				break
			}
		}
		if !found {
			state.Subquestions = append(state.Subquestions, g)
		}
	}
}

func execConstraints(ctx workflow.Context, question string) ([]string, error) {
	var constraints []string
	err := workflow.ExecuteActivity(ctx, "ExtractConstraints", activities.ConstraintExtractorInput{Question: question}).Get(ctx, &constraints)
	return constraints, err
}

func execAnalyze(ctx workflow.Context, question string, state *activities.ResearchState, timeRemaining time.Duration) (activities.AnalysisResult, error) {
	var result activities.AnalysisResult
	err := workflow.ExecuteActivity(ctx, "Analyze", activities.AnalyzeInput{
		Question:         question,
		Findings:         state.Findings,
		SubAnswers:       state.SubAnswers,
		TimeRemainingMin: timeRemaining.Minutes(),
	}).Get(ctx, &result)
	return result, err
}

// buildExtractionPrompt renders the constraint-focused extraction prompt
// (spec.md §4.3) asking for a structured constraintMatches object, or a
// generic summarization prompt when constraints is empty (interactive
// mode, or eval mode's constraint pass having failed outright).
func buildExtractionPrompt(constraints []string) string {
	if len(constraints) == 0 {
		return "Summarize the key facts on this page relevant to answering the user's question. " +
			"Return a short JSON object with an \"additionalContext\" field containing your summary."
	}
	var b strings.Builder
	b.WriteString("Identify values for the following constraints on this page: ")
	b.WriteString(strings.Join(constraints, ", "))
	b.WriteString(". Return a JSON object shaped ")
	b.WriteString(`{"constraintMatches": {"<constraint>": "<value or null>"}, "entityName": "<string or null>", "additionalContext": "<string>"}.`)
	return b.String()
}

// finalizeAnswer runs the Synthesizer against whatever findings the loop
// accumulated. Both modes produce the same three-line format (spec.md
// §3); interactive mode's own non-constraint-focused extraction prompt
// (spec.md §9 open question (b)) only affects the per-hop Extract calls,
// not this closing step.
func finalizeAnswer(ctx workflow.Context, req ResearchRequest, state *activities.ResearchState, interactive bool, logger interface {
	Warn(msg string, keyvals ...interface{})
}) string {
	var content string
	if err := workflow.ExecuteActivity(ctx, "Synthesize", activities.SynthesizeInput{
		Question: req.Question,
		Findings: state.Findings,
	}).Get(ctx, &content); err != nil {
		logger.Warn("Synthesize failed", "error", err)
		return activities.Format("", req.Question)
	}
	return content
}
