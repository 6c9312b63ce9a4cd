package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGenericTopic_GenericWordMatches(t *testing.T) {
	assert.True(t, isGenericTopic("what happened"))
	assert.True(t, isGenericTopic("   "))
	assert.True(t, isGenericTopic("12345"))
	assert.True(t, isGenericTopic("two words"), "fewer than 3 whitespace tokens is generic")
}

func TestIsGenericTopic_SpecificQueryIsNotGeneric(t *testing.T) {
	assert.False(t, isGenericTopic("Apollo 11 lunar landing date"))
}

func TestExtractKeyTerms_PrefersQuotedAndCapitalizedTerms(t *testing.T) {
	got := extractKeyTerms(`The "Lunar Module" landed near Mare Tranquillitatis in 1969.`)
	assert.Contains(t, got, "Lunar Module")
	assert.Contains(t, got, "1969")
}

func TestGenerateFallbackQuery_PrefersNumericEntities(t *testing.T) {
	got := generateFallbackQuery("How many 50 states are there in the country?")
	assert.Contains(t, got, "50 states")
}

func TestGenerateFallbackQuery_FallsBackToLiteral(t *testing.T) {
	got := generateFallbackQuery("a an of to")
	assert.Equal(t, "search query", got)
}

func TestContainsAny(t *testing.T) {
	assert.True(t, containsAny("the explanation is long", []string{"explanation", "confidence"}))
	assert.False(t, containsAny("nothing relevant here", []string{"explanation", "confidence"}))
}

func TestIsAllDigits(t *testing.T) {
	assert.True(t, isAllDigits("12345"))
	assert.False(t, isAllDigits("123a5"))
}
