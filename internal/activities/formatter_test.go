package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_PassesThroughWellFormed(t *testing.T) {
	candidate := "Explanation: Paris is the capital of France.\nExact Answer: Paris\nConfidence: 95%"
	assert.Equal(t, candidate, Format(candidate, "What is the capital of France?"))
}

func TestFormat_SalvagesMalformedOrdering(t *testing.T) {
	candidate := "Confidence: 80%\nSome preamble text.\nExact Answer: Paris\nExplanation: It is well known."
	got := Format(candidate, "What is the capital of France?")
	assert.Contains(t, got, "Exact Answer: Paris")
	assert.Contains(t, got, "Confidence: 80%")
}

func TestFormat_EmptyCandidateFallsBack(t *testing.T) {
	got := Format("", "What is the capital of France?")
	assert.Contains(t, got, "Exact Answer: Unknown")
	assert.Contains(t, got, "Confidence: 10%")
	assert.Contains(t, got, "What is the capital of France?")
}

func TestFormat_UnsalvageableTextFallsBack(t *testing.T) {
	got := Format("this text has none of the required labels", "question?")
	assert.Contains(t, got, "Exact Answer: Unknown")
}

func TestFormat_PartialSalvageFillsMissingFields(t *testing.T) {
	candidate := "Exact Answer: Paris"
	got := Format(candidate, "question?")
	assert.Contains(t, got, "Exact Answer: Paris")
	assert.Contains(t, got, "Confidence: 30%")
	assert.Contains(t, got, "The research could not find a definitive answer.")
}
