package activities

import (
	"context"
	"fmt"
	"strings"

	"github.com/cobaltwave/deepresearch/internal/tracing"
)

// SynthesizeInput is the Temporal activity input for Synthesize.
type SynthesizeInput struct {
	Question string
	Findings []Finding
}

// Synthesize implements the eval-mode Synthesizer (spec.md §4.8): derive
// key constraints, score per-constraint coverage across findings, prompt
// the reasoning LLM for a three-line answer, then run the Formatter and
// fall back to the hard default if the formatted result still lacks an
// "Exact Answer:" line.
func (a *Activities) Synthesize(ctx context.Context, in SynthesizeInput) (string, error) {
	ctx, span := tracing.StartActivity(ctx, "synthesize")
	defer span.End()

	logger := activityLogger(ctx, a.logger)

	constraints, err := a.ExtractConstraints(ctx, ConstraintExtractorInput{Question: in.Question})
	if err != nil {
		logger.Warn("Synthesize: constraint extraction failed", "error", err)
		constraints = fallbackConstraints(in.Question)
	}

	coverage := make([]int, len(constraints))
	for i, c := range constraints {
		needle := strings.ToLower(c)
		for _, f := range in.Findings {
			if strings.Contains(strings.ToLower(f.Text), needle) {
				coverage[i]++
			}
		}
	}

	prompt := buildSynthesisPrompt(in.Question, constraints, coverage, in.Findings)
	resp, err := a.llm.GenerateText(ctx, LLMRequest{Prompt: prompt, MaxTokens: 800})
	candidate := ""
	if err != nil {
		logger.Warn("Synthesize: llm call failed", "error", err)
	} else {
		candidate = resp.Text
	}

	formatted := Format(candidate, in.Question)
	if !hasExactAnswerLine(formatted) {
		formatted = Format("", in.Question)
	}
	return formatted, nil
}

func buildSynthesisPrompt(question string, constraints []string, coverage []int, findings []Finding) string {
	var constraintLines strings.Builder
	for i, c := range constraints {
		total := len(findings)
		fmt.Fprintf(&constraintLines, "%d. %q: matched %d/%d findings\n", i+1, c, coverage[i], total)
	}

	var sources strings.Builder
	for i, f := range findings {
		fmt.Fprintf(&sources, "--- SOURCE %d (%s) ---\n%s\n", i+1, f.Source, f.Text)
	}

	return fmt.Sprintf(synthesisPromptTemplate, question, constraintLines.String(), sources.String())
}

const synthesisPromptTemplate = `Question: %s

Identified constraints and how many findings satisfy each:
%s

Findings:
%s

Score each candidate answer by matched-constraints/total-constraints. Respond
with EXACTLY three lines:
Explanation: <one or two sentences>
Exact Answer: <the answer, or Unknown>
Confidence: <0-100>%%`

func hasExactAnswerLine(formatted string) bool {
	for _, line := range strings.Split(formatted, "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "exact answer:") {
			return true
		}
	}
	return false
}
