package activities

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// stopwords is the set excluded from extractKeyTerms' lowercase-word
// category and from the capitalized-sequence category, per spec.md §4.4.
// It defaults to builtinStopwords but is replaced wholesale by SetStopwords
// once Config.Stopwords is loaded, so research.yaml (and its hot-reload via
// internal/config.ConfigManager) is the actual source of truth in
// production; builtinStopwords only covers the no-config-file case.
var (
	stopwordsMu sync.RWMutex
	stopwords   = builtinStopwords()
)

func builtinStopwords() map[string]struct{} {
	return map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "of": {}, "in": {},
		"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {}, "from": {}, "as": {},
		"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
		"has": {}, "have": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
		"would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {}, "can": {},
		"explanation": {}, "answer": {}, "confidence": {}, "response": {}, "additionally": {},
		"also": {}, "both": {}, "either": {}, "neither": {},
		"what": {}, "when": {}, "where": {}, "who": {}, "why": {}, "how": {}, "which": {},
	}
}

// SetStopwords replaces the active stopword set from cfg.Stopwords. Called
// once at startup (when research.yaml configures stopwords at all) and
// again by ConfigManager's research.yaml handler on every hot reload.
func SetStopwords(words []string) {
	if len(words) == 0 {
		return
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	stopwordsMu.Lock()
	stopwords = m
	stopwordsMu.Unlock()
}

func isStopword(word string) bool {
	stopwordsMu.RLock()
	defer stopwordsMu.RUnlock()
	_, ok := stopwords[word]
	return ok
}

var (
	quotedPhraseRe   = regexp.MustCompile(`"([^"]{3,})"`)
	capSequenceRe    = regexp.MustCompile(`\b([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*){0,2})\b`)
	yearRe           = regexp.MustCompile(`\b(19[5-9]\d|20[0-4]\d)\b`)
	percentRe        = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)
	lowercaseWordRe  = regexp.MustCompile(`\b[a-z]{5,}\b`)
	numericFollowRe  = regexp.MustCompile(`\b(\d+)\s+([A-Za-z]+)\b`)
	explanationWords = []string{"explanation", "answer", "confidence"}
)

const maxConstraints = 8

// ConstraintExtractorInput is the Temporal activity input for ExtractConstraints.
type ConstraintExtractorInput struct {
	Question string `json:"question"`
}

// ExtractConstraints asks the reasoning LLM for identifying constraints on
// the question, parses the response with the tiered JSON salvage, filters
// and caps the result, falling back to extractKeyTerms on any failure.
func (a *Activities) ExtractConstraints(ctx context.Context, in ConstraintExtractorInput) ([]string, error) {
	logger := activityLogger(ctx, a.logger)

	prompt := fmt.Sprintf(constraintPromptTemplate, in.Question)
	resp, err := a.llm.GenerateText(ctx, LLMRequest{Prompt: prompt, MaxTokens: 300})
	if err != nil {
		logger.Warn("ExtractConstraints: llm call failed, falling back", "error", err)
		return fallbackConstraints(in.Question), nil
	}

	values, ok := salvageStringArray(resp.Text)
	if !ok {
		logger.Warn("ExtractConstraints: salvage failed, falling back")
		return fallbackConstraints(in.Question), nil
	}

	filtered := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) < 2 || len(v) > 50 {
			continue
		}
		lower := strings.ToLower(v)
		if strings.Contains(lower, "explanation") || strings.Contains(lower, "confidence") {
			continue
		}
		filtered = append(filtered, v)
		if len(filtered) >= maxConstraints {
			break
		}
	}
	if len(filtered) == 0 {
		return fallbackConstraints(in.Question), nil
	}
	return filtered, nil
}

func fallbackConstraints(question string) []string {
	terms := strings.Fields(extractKeyTerms(question))
	if len(terms) > 5 {
		terms = terms[:5]
	}
	return terms
}

const constraintPromptTemplate = `Identify the specific, verifiable constraints embedded in the following question (names, dates, numbers, locations, qualifiers). Return ONLY a JSON array of short strings, one per constraint.

Question: %s`

// extractKeyTerms produces a deduplicated, ordered union of: quoted phrases,
// capitalized 1-3 word sequences, four-digit years in 1950-2049, percentage
// tokens, and lowercase words longer than 4 characters — each category
// capped at 8 — returning the 8 longest tokens joined by spaces.
func extractKeyTerms(text string) string {
	seen := make(map[string]struct{})
	var all []string

	add := func(candidates []string, limit int) {
		count := 0
		for _, c := range candidates {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			key := strings.ToLower(c)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, c)
			count++
			if count >= limit {
				break
			}
		}
	}

	var quoted []string
	for _, m := range quotedPhraseRe.FindAllStringSubmatch(text, -1) {
		if len(m[1]) > 2 {
			quoted = append(quoted, m[1])
		}
	}
	add(quoted, 8)

	var capSeqs []string
	for _, m := range capSequenceRe.FindAllString(text, -1) {
		if !isStopword(strings.ToLower(m)) {
			capSeqs = append(capSeqs, m)
		}
	}
	add(capSeqs, 8)

	add(yearRe.FindAllString(text, -1), 8)
	add(percentRe.FindAllString(text, -1), 8)

	var lowerWords []string
	for _, w := range lowercaseWordRe.FindAllString(text, -1) {
		if isStopword(w) {
			continue
		}
		if containsAny(w, explanationWords) {
			continue
		}
		lowerWords = append(lowerWords, w)
	}
	add(lowerWords, 8)

	sort.SliceStable(all, func(i, j int) bool { return len(all[i]) > len(all[j]) })
	if len(all) > 8 {
		all = all[:8]
	}
	return strings.Join(all, " ")
}

// generateFallbackQuery mirrors extractKeyTerms but prefers raw numeric
// tokens paired with their following word, joined as space-separated
// entities and capped at 5; falling back to lowercase words (capped at 4),
// then the literal "search query".
func generateFallbackQuery(question string) string {
	var entities []string
	seen := make(map[string]struct{})
	for _, m := range numericFollowRe.FindAllStringSubmatch(question, -1) {
		entity := m[1] + " " + m[2]
		key := strings.ToLower(entity)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entities = append(entities, entity)
		if len(entities) >= 5 {
			break
		}
	}
	if len(entities) > 0 {
		return strings.Join(entities, " ")
	}

	var lowerWords []string
	for _, w := range lowercaseWordRe.FindAllString(question, -1) {
		if isStopword(w) {
			continue
		}
		lowerWords = append(lowerWords, w)
		if len(lowerWords) >= 4 {
			break
		}
	}
	if len(lowerWords) > 0 {
		return strings.Join(lowerWords, " ")
	}
	return "search query"
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var allDigitsRe = regexp.MustCompile(`^\d+$`)

// isAllDigits reports whether s (non-empty) consists solely of digits.
func isAllDigits(s string) bool {
	return allDigitsRe.MatchString(s)
}
