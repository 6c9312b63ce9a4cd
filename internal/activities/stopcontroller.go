package activities

import (
	"context"
	"time"

	rmetrics "github.com/cobaltwave/deepresearch/internal/metrics"
)

// InterHopSleep is the pause between hops when the loop continues, matching
// spec.md §4.7.
const InterHopSleep = 2 * time.Second

// StopCheckInput carries everything the Stop Controller needs to evaluate
// the seven termination conditions after a hop.
type StopCheckInput struct {
	Analysis          AnalysisResult
	FindingsCount     int
	CurrentDepth      int
	MaxDepth          int
	Elapsed           time.Duration
	TimeLimit         time.Duration
	FailedAttempts    int
	MaxFailedAttempts int
	IsLastHop         bool
}

// StopDecision reports whether the loop should stop and why.
type StopDecision struct {
	Stop   bool
	Reason string
}

// stop reasons, also used as the Prometheus label value.
const (
	ReasonHighConfidence   = "high_confidence"
	ReasonMediumConfidence = "medium_confidence"
	ReasonFindingsCap      = "findings_cap"
	ReasonAnalysisStop     = "analysis_should_not_continue"
	ReasonMaxDepth         = "max_depth"
	ReasonTimeLimit        = "time_limit"
	ReasonFailedAttempts   = "failed_attempts"
	ReasonContinue         = "continue"
)

// CheckStop evaluates the seven deterministic guardrails from spec.md §4.7,
// in priority order, and sleeps between hops when the loop continues and
// this isn't the last possible hop.
func (a *Activities) CheckStop(ctx context.Context, in StopCheckInput) (StopDecision, error) {
	decision := evaluateStop(in)
	rmetrics.StopReasonTotal.WithLabelValues(decision.Reason).Inc()

	if !decision.Stop && !in.IsLastHop {
		if err := sleepCtx(ctx, InterHopSleep); err != nil {
			return decision, err
		}
	}
	return decision, nil
}

func evaluateStop(in StopCheckInput) StopDecision {
	a := in.Analysis
	switch {
	case a.HasAnswer && a.Confidence == "high" && in.FindingsCount >= 3:
		return StopDecision{true, ReasonHighConfidence}
	case a.HasAnswer && a.Confidence == "medium" && in.FindingsCount >= 6:
		return StopDecision{true, ReasonMediumConfidence}
	case in.FindingsCount >= 8:
		return StopDecision{true, ReasonFindingsCap}
	case !a.ShouldContinue:
		return StopDecision{true, ReasonAnalysisStop}
	case in.CurrentDepth >= in.MaxDepth:
		return StopDecision{true, ReasonMaxDepth}
	case in.Elapsed >= in.TimeLimit:
		return StopDecision{true, ReasonTimeLimit}
	case in.FailedAttempts >= in.MaxFailedAttempts:
		return StopDecision{true, ReasonFailedAttempts}
	default:
		return StopDecision{false, ReasonContinue}
	}
}
