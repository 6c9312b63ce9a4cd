package activities

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	wellFormedExplanationRe = regexp.MustCompile(`(?i)^explanation:`)
	wellFormedAnswerRe      = regexp.MustCompile(`(?i)^exact answer:`)
	wellFormedConfidenceRe  = regexp.MustCompile(`(?i)^confidence:\s*(100|[1-9]?\d)%\s*$`)

	salvageExplanationRe = regexp.MustCompile(`(?is)explanation:\s*(.*?)(?:exact answer:|confidence:|$)`)
	salvageAnswerRe      = regexp.MustCompile(`(?is)exact answer:\s*(.*?)(?:explanation:|confidence:|$)`)
	salvageConfidenceRe  = regexp.MustCompile(`(?is)confidence:\s*(\d{1,3}%)`)
)

// Format implements the three-line Formatter (spec.md §4.9): pass through
// an already well-formed candidate, regex-salvage a malformed one, or emit
// the fixed fallback when nothing usable can be recovered.
func Format(candidate, question string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return emptyFallback(question)
	}

	lines := strings.Split(candidate, "\n")
	if len(lines) == 3 &&
		wellFormedExplanationRe.MatchString(strings.TrimSpace(lines[0])) &&
		wellFormedAnswerRe.MatchString(strings.TrimSpace(lines[1])) &&
		wellFormedConfidenceRe.MatchString(strings.TrimSpace(lines[2])) {
		return candidate
	}

	explanation := ""
	if m := salvageExplanationRe.FindStringSubmatch(candidate); m != nil {
		explanation = strings.TrimSpace(m[1])
	}
	answer := ""
	if m := salvageAnswerRe.FindStringSubmatch(candidate); m != nil {
		answer = strings.TrimSpace(m[1])
	}
	confidence := ""
	if m := salvageConfidenceRe.FindStringSubmatch(candidate); m != nil {
		confidence = strings.TrimSpace(m[1])
	}

	if explanation == "" && answer == "" && confidence == "" {
		return emptyFallback(question)
	}

	if explanation == "" {
		explanation = "The research could not find a definitive answer."
	}
	if answer == "" {
		answer = "Unknown"
	}
	if confidence == "" {
		confidence = "30%"
	}

	return fmt.Sprintf("Explanation: %s\nExact Answer: %s\nConfidence: %s", explanation, answer, confidence)
}

func emptyFallback(question string) string {
	return fmt.Sprintf("Explanation: The research could not find a definitive answer to: %q\nExact Answer: Unknown\nConfidence: 10%%", question)
}
