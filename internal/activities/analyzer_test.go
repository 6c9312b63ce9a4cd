package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalvageAnalysis_DirectJSON(t *testing.T) {
	text := `{"summary":"ok","hasAnswer":true,"confidence":"high","shouldContinue":false}`
	result, tier := salvageAnalysis(text, AnalyzeInput{})
	assert.Equal(t, 1, tier)
	assert.True(t, result.HasAnswer)
	assert.Equal(t, "high", result.Confidence)
}

func TestSalvageAnalysis_FencedBlock(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"summary\":\"ok\",\"hasAnswer\":true,\"confidence\":\"medium\",\"shouldContinue\":true}\n```\nThanks."
	result, tier := salvageAnalysis(text, AnalyzeInput{})
	assert.Equal(t, 2, tier)
	assert.Equal(t, "medium", result.Confidence)
}

func TestSalvageAnalysis_BalancedBraceAmongNoise(t *testing.T) {
	text := "not json at all but here {\"summary\":\"ok\",\"hasAnswer\":false,\"confidence\":\"low\",\"shouldContinue\":true} trailing junk"
	result, tier := salvageAnalysis(text, AnalyzeInput{})
	assert.Equal(t, 3, tier)
	assert.False(t, result.HasAnswer)
}

func TestSalvageAnalysis_TextualFallback(t *testing.T) {
	text := "I am highly confident the answer was found in the sources."
	result, tier := salvageAnalysis(text, AnalyzeInput{TimeRemainingMin: 2})
	require.Equal(t, 4, tier)
	assert.Equal(t, "high", result.Confidence)
	assert.True(t, result.HasAnswer)
}

func TestSalvageAnalysis_AnalysisEnvelopeUnwrapped(t *testing.T) {
	text := `{"analysis":{"summary":"ok","hasAnswer":true,"confidence":"high","shouldContinue":false}}`
	result, tier := salvageAnalysis(text, AnalyzeInput{})
	assert.Equal(t, 1, tier)
	assert.True(t, result.HasAnswer)
}

func TestSalvageStringArray_DirectAndFenced(t *testing.T) {
	values, ok := salvageStringArray(`["a", "b", "c"]`)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, values)

	values, ok = salvageStringArray("```json\n[\"x\", \"y\"]\n```")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, values)
}

func TestSalvageStringArray_NoArrayFound(t *testing.T) {
	_, ok := salvageStringArray("no array here")
	assert.False(t, ok)
}
