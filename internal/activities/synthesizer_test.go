package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasExactAnswerLine(t *testing.T) {
	assert.True(t, hasExactAnswerLine("Explanation: x\nExact Answer: Paris\nConfidence: 90%"))
	assert.True(t, hasExactAnswerLine("exact answer: paris"), "match should be case-insensitive")
	assert.False(t, hasExactAnswerLine("Explanation: x\nConfidence: 90%"))
}

func TestBuildSynthesisPrompt_IncludesConstraintCoverageAndSources(t *testing.T) {
	prompt := buildSynthesisPrompt(
		"What year did it happen?",
		[]string{"1969"},
		[]int{1},
		[]Finding{{Text: "It happened in 1969.", Source: "https://example.com"}},
	)
	assert.Contains(t, prompt, "What year did it happen?")
	assert.Contains(t, prompt, `"1969": matched 1/1 findings`)
	assert.Contains(t, prompt, "https://example.com")
	assert.Contains(t, prompt, "It happened in 1969.")
}
