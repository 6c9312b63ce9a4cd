package activities

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// genericPredicateRe matches the documented generic-topic words as whole
// words, case-insensitively.
var genericPredicateRe = regexp.MustCompile(`(?i)\b(what|when|where|who|how|name|info|event)\b`)

const maxSubquestions = 8
const recentFindingsForPrompt = 3
const findingTruncateChars = 150

// PlanTopicInput is the Temporal activity input for PlanTopic.
type PlanTopicInput struct {
	Question             string
	Hop                  int
	Subquestions         []string            // current FIFO queue, front at index 0
	AnsweredSubquestions map[string]struct{} // already-dequeued subquestions, for dedup
	NextSearchTopic      string
	Findings             []Finding
	FailedAttempts       int
}

// PlanTopicResult reports the selected topic plus the queue mutation the
// workflow must apply (dequeued item removed, or newly generated questions
// enqueued then one dequeued).
type PlanTopicResult struct {
	Topic              string
	RemainingQueue     []string
	MarkAnswered       string // non-empty if a subquestion was dequeued
	GeneratedQuestions []string
}

// PlanTopic selects the search topic for the next hop per spec.md §4.5's
// five-step precedence: original question on hop 1, then the pending
// subquestion queue, then LLM-generated subquestions when the topic is
// absent or generic, then the carried-over topic, with a failed-attempts
// override when findings remain empty.
func (a *Activities) PlanTopic(ctx context.Context, in PlanTopicInput) (PlanTopicResult, error) {
	logger := activityLogger(ctx, a.logger)

	var result PlanTopicResult
	result.RemainingQueue = append([]string{}, in.Subquestions...)

	switch {
	case in.Hop == 1:
		result.Topic = in.Question

	case len(result.RemainingQueue) > 0:
		result.Topic = result.RemainingQueue[0]
		result.RemainingQueue = result.RemainingQueue[1:]
		result.MarkAnswered = result.Topic

	case in.NextSearchTopic == "" || isGenericTopic(in.NextSearchTopic):
		generated, err := a.generateSubquestions(ctx, in)
		if err != nil {
			logger.Warn("PlanTopic: subquestion generation failed, using key terms", "error", err)
			result.Topic = extractKeyTerms(in.Question)
		} else {
			// Dedup against both the pending queue and already-answered
			// subquestions (spec.md §9 open question (a)).
			fresh := make([]string, 0, len(generated))
			for _, g := range generated {
				if inQueue(result.RemainingQueue, g) {
					continue
				}
				if _, answered := in.AnsweredSubquestions[g]; answered {
					continue
				}
				fresh = append(fresh, g)
			}
			if len(fresh) == 0 {
				result.Topic = extractKeyTerms(in.Question)
			} else {
				result.GeneratedQuestions = fresh
				result.Topic = fresh[0]
				result.RemainingQueue = append(result.RemainingQueue, fresh[1:]...)
				result.MarkAnswered = fresh[0]
			}
		}

	default:
		result.Topic = in.NextSearchTopic
	}

	if in.FailedAttempts >= 2 && len(in.Findings) == 0 {
		result.Topic = generateFallbackQuery(in.Question)
	}

	return result, nil
}

func (a *Activities) generateSubquestions(ctx context.Context, in PlanTopicInput) ([]string, error) {
	var recent strings.Builder
	start := 0
	if len(in.Findings) > recentFindingsForPrompt {
		start = len(in.Findings) - recentFindingsForPrompt
	}
	for _, f := range in.Findings[start:] {
		text := f.Text
		if len(text) > findingTruncateChars {
			text = text[:findingTruncateChars]
		}
		fmt.Fprintf(&recent, "- %s\n", text)
	}

	prompt := fmt.Sprintf(subquestionPromptTemplate, in.Question, recent.String())
	resp, err := a.llm.GenerateText(ctx, LLMRequest{Prompt: prompt, MaxTokens: 300})
	if err != nil {
		return nil, err
	}

	values, ok := salvageStringArray(resp.Text)
	if !ok {
		return nil, nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) < 10 || len(v) > 100 {
			continue
		}
		out = append(out, v)
		if len(out) >= maxSubquestions {
			break
		}
	}
	return out, nil
}

const subquestionPromptTemplate = `Original question: %s

Recent findings:
%s

Generate focused subquestions that would help answer the original question more
precisely. Return ONLY a JSON array of question strings.`

func inQueue(queue []string, s string) bool {
	for _, q := range queue {
		if q == s {
			return true
		}
	}
	return false
}

// isGenericTopic implements spec.md §4.5's generic predicate: true when the
// trimmed query matches a generic word, has fewer than 3 whitespace tokens,
// or is all digits.
func isGenericTopic(topic string) bool {
	trimmed := strings.TrimSpace(topic)
	if trimmed == "" {
		return true
	}
	if genericPredicateRe.MatchString(trimmed) {
		return true
	}
	if len(strings.Fields(trimmed)) < 3 {
		return true
	}
	if isAllDigits(trimmed) {
		return true
	}
	return false
}
