package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	rmetrics "github.com/cobaltwave/deepresearch/internal/metrics"
	"github.com/cobaltwave/deepresearch/internal/tracing"
)

var (
	fencedBlockRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	balancedBraceRe = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	shouldContinueTextRe = regexp.MustCompile(`(?i)continue|more search|insufficient`)
	highConfidenceRe     = regexp.MustCompile(`(?i)high confidence|confident`)
	mediumConfidenceRe   = regexp.MustCompile(`(?i)medium|moderate`)
	hasAnswerTextRe      = regexp.MustCompile(`(?i)found|answer|identified`)
)

// AnalyzeInput is the Temporal activity input for Analyze.
type AnalyzeInput struct {
	Question        string      `json:"question"`
	Findings        []Finding   `json:"findings"`
	SubAnswers      []SubAnswer `json:"subAnswers"`
	TimeRemainingMin float64    `json:"timeRemainingMin"`
}

// Analyze calls the reasoning LLM with an analysis prompt and recovers an
// AnalysisResult through the tiered JSON salvage, falling back to a fixed
// error record if the LLM call itself fails.
func (a *Activities) Analyze(ctx context.Context, in AnalyzeInput) (AnalysisResult, error) {
	ctx, span := tracing.StartActivity(ctx, "analyze")
	defer span.End()

	logger := activityLogger(ctx, a.logger)

	prompt := buildAnalysisPrompt(in)
	resp, err := a.llm.GenerateText(ctx, LLMRequest{Prompt: prompt, MaxTokens: 600})
	if err != nil {
		logger.Warn("Analyze: llm call failed", "error", err)
		return AnalysisResult{
			Summary:         "Analysis function encountered an error",
			HasAnswer:       false,
			Confidence:      "low",
			Gaps:            []string{"Analysis system error"},
			ShouldContinue:  len(in.Findings) < 5 && in.TimeRemainingMin > 1,
			NextSearchTopic: generateFallbackQuery(in.Question),
		}, nil
	}

	result, tier := salvageAnalysis(resp.Text, in)
	if tier > 1 {
		rmetrics.AnalysisParseFallbackTotal.WithLabelValues(fmt.Sprintf("tier%d", tier)).Inc()
	}
	return result, nil
}

func buildAnalysisPrompt(in AnalyzeInput) string {
	var findings strings.Builder
	for i, f := range in.Findings {
		fmt.Fprintf(&findings, "--- SOURCE %d (%s) ---\n%s\n", i+1, f.Source, f.Text)
	}
	var subanswers strings.Builder
	for _, sa := range in.SubAnswers {
		fmt.Fprintf(&subanswers, "Q: %s\nA: %s\n", sa.Query, sa.Answer)
	}
	return fmt.Sprintf(analysisPromptTemplate, in.Question, findings.String(), subanswers.String())
}

const analysisPromptTemplate = `Question: %s

Findings so far:
%s

Prior subanswers:
%s

Analyze whether the findings answer the question. Return a JSON object with keys:
summary, hasAnswer, confidence ("low"|"medium"|"high"), gaps (array of strings),
shouldContinue, nextSearchTopic, urlToSearch, subquestions (array of strings), subAnswer, lastQuery.

Rules: confidence="high" only when multiple independent sources corroborate the
same value; prefer continuing search over guessing when sources conflict.`

// salvageAnalysis runs the four-tier recovery described in spec.md §4.6 and
// reports which tier produced the result (1 = direct parse).
func salvageAnalysis(text string, in AnalyzeInput) (AnalysisResult, int) {
	if result, ok := tryParseAnalysis(text); ok {
		return result, 1
	}

	for _, block := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		if result, ok := tryParseAnalysis(block[1]); ok {
			return result, 2
		}
	}

	for _, candidate := range balancedBraceRe.FindAllString(text, -1) {
		if result, ok := tryParseAnalysis(candidate); ok {
			return result, 3
		}
	}

	return textualSalvage(text, in), 4
}

// tryParseAnalysis attempts a direct JSON decode of raw into an
// AnalysisResult, honoring the analysis/summary envelope rules.
func tryParseAnalysis(raw string) (AnalysisResult, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AnalysisResult{}, false
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return AnalysisResult{}, false
	}

	payload := raw
	if inner, ok := generic["analysis"]; ok {
		payload = string(inner)
	}

	// subquestions is decoded leniently (the outer field shadows the
	// embedded one) so a non-string entry is dropped instead of failing
	// the whole parse.
	var lenient struct {
		AnalysisResult
		Subquestions []interface{} `json:"subquestions"`
	}
	if err := json.Unmarshal([]byte(payload), &lenient); err != nil {
		return AnalysisResult{}, false
	}
	result := lenient.AnalysisResult

	// Filter subquestions to non-blank string items only.
	filtered := make([]string, 0, len(lenient.Subquestions))
	for _, item := range lenient.Subquestions {
		if sq, ok := item.(string); ok && strings.TrimSpace(sq) != "" {
			filtered = append(filtered, sq)
		}
	}
	result.Subquestions = filtered
	return result, true
}

func textualSalvage(text string, in AnalyzeInput) AnalysisResult {
	confidence := "low"
	switch {
	case highConfidenceRe.MatchString(text):
		confidence = "high"
	case mediumConfidenceRe.MatchString(text):
		confidence = "medium"
	}

	hasAnswer := hasAnswerTextRe.MatchString(text) || confidence == "high"
	shouldContinue := len(in.Findings) < 3 || in.TimeRemainingMin > 1.5 || shouldContinueTextRe.MatchString(text)

	summary := text
	if len(summary) > 200 {
		summary = summary[:200]
	}

	return AnalysisResult{
		Summary:         summary,
		HasAnswer:       hasAnswer,
		Confidence:      confidence,
		Gaps:            []string{"More information needed"},
		ShouldContinue:  shouldContinue,
		NextSearchTopic: generateFallbackQuery(in.Question),
	}
}

// salvageStringArray runs the same fenced-block / balanced-brace recovery
// tiers as the Analyzer, but for a bare JSON array of strings (used by the
// Constraint Extractor and the Subquestion Planner).
func salvageStringArray(text string) ([]string, bool) {
	if values, ok := tryParseStringArray(text); ok {
		return values, true
	}
	for _, block := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		if values, ok := tryParseStringArray(block[1]); ok {
			return values, true
		}
	}
	for _, candidate := range balancedArrayRe.FindAllString(text, -1) {
		if values, ok := tryParseStringArray(candidate); ok {
			return values, true
		}
	}
	return nil, false
}

var balancedArrayRe = regexp.MustCompile(`(?s)\[[^\[\]]*(?:\[[^\[\]]*\][^\[\]]*)*\]`)

func tryParseStringArray(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out, len(out) > 0
}
