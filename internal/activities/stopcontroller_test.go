package activities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateStop_HighConfidence(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:      AnalysisResult{HasAnswer: true, Confidence: "high", ShouldContinue: true},
		FindingsCount: 3,
		MaxDepth:      6,
	})
	assert.True(t, decision.Stop)
	assert.Equal(t, ReasonHighConfidence, decision.Reason)
}

func TestEvaluateStop_MediumConfidenceNeedsMoreFindings(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:          AnalysisResult{HasAnswer: true, Confidence: "medium", ShouldContinue: true},
		FindingsCount:     5,
		MaxDepth:          6,
		TimeLimit:         3*time.Minute + 30*time.Second,
		MaxFailedAttempts: 3,
	})
	assert.False(t, decision.Stop, "medium confidence requires 6 findings, not 5")
	assert.Equal(t, ReasonContinue, decision.Reason)
}

func TestEvaluateStop_FindingsCapBeatsContinue(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:      AnalysisResult{ShouldContinue: true},
		FindingsCount: 8,
		MaxDepth:      6,
	})
	assert.True(t, decision.Stop)
	assert.Equal(t, ReasonFindingsCap, decision.Reason)
}

func TestEvaluateStop_AnalysisSaysStop(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:      AnalysisResult{ShouldContinue: false},
		FindingsCount: 1,
		MaxDepth:      6,
	})
	assert.True(t, decision.Stop)
	assert.Equal(t, ReasonAnalysisStop, decision.Reason)
}

func TestEvaluateStop_MaxDepthReached(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:     AnalysisResult{ShouldContinue: true},
		CurrentDepth: 6,
		MaxDepth:     6,
	})
	assert.True(t, decision.Stop)
	assert.Equal(t, ReasonMaxDepth, decision.Reason)
}

func TestEvaluateStop_TimeLimitReached(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:  AnalysisResult{ShouldContinue: true},
		MaxDepth:  6,
		Elapsed:   4 * time.Minute,
		TimeLimit: 3*time.Minute + 30*time.Second,
	})
	assert.True(t, decision.Stop)
	assert.Equal(t, ReasonTimeLimit, decision.Reason)
}

func TestEvaluateStop_FailedAttemptsExhausted(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:          AnalysisResult{ShouldContinue: true},
		MaxDepth:          6,
		FailedAttempts:    3,
		MaxFailedAttempts: 3,
	})
	assert.True(t, decision.Stop)
	assert.Equal(t, ReasonFailedAttempts, decision.Reason)
}

func TestEvaluateStop_ContinuesWhenNothingTrips(t *testing.T) {
	decision := evaluateStop(StopCheckInput{
		Analysis:          AnalysisResult{ShouldContinue: true},
		FindingsCount:     2,
		CurrentDepth:      2,
		MaxDepth:          6,
		Elapsed:           10 * time.Second,
		TimeLimit:         3 * time.Minute,
		FailedAttempts:    1,
		MaxFailedAttempts: 3,
	})
	assert.False(t, decision.Stop)
	assert.Equal(t, ReasonContinue, decision.Reason)
}
