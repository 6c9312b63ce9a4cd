// Package activities holds the Temporal activities that implement the
// research loop: searching, extracting, ranking URLs, deriving constraints,
// planning subquestions, analyzing progress, and synthesizing the final
// answer. Each activity is a thin, retryable unit of work; the loop itself
// lives in internal/workflows.
package activities

import "time"

// Finding is a single (text, source_url) pair appended after a successful
// extraction. Findings never shrink during a request.
type Finding struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// SubAnswer pairs a dequeued subquestion with the analyzer's answer for it.
type SubAnswer struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// URLFreqEntry tracks how many distinct search responses mentioned a URL.
type URLFreqEntry struct {
	URL       string `json:"url"`
	Frequency int    `json:"frequency"`
	Title     string `json:"title,omitempty"`
}

// SearchResultItem is a single hit returned by the Searcher.
type SearchResultItem struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SearchResult is the outcome of one search query.
type SearchResult struct {
	Success bool               `json:"success"`
	Data    []SearchResultItem `json:"data"`
	Error   string             `json:"error,omitempty"`
}

// AnalysisResult is the closed, all-optional record the Analyzer produces
// from the reasoning LLM's output. Every field tolerates absence; the
// tiered JSON salvage in analyzer.go supplies defaults.
type AnalysisResult struct {
	Summary         string   `json:"summary"`
	HasAnswer       bool     `json:"hasAnswer"`
	Confidence      string   `json:"confidence"` // low|medium|high
	Gaps            []string `json:"gaps"`
	ShouldContinue  bool     `json:"shouldContinue"`
	NextSearchTopic string   `json:"nextSearchTopic,omitempty"`
	URLToSearch     string   `json:"urlToSearch,omitempty"`
	Subquestions    []string `json:"subquestions,omitempty"`
	SubAnswer       string   `json:"subAnswer,omitempty"`
	LastQuery       string   `json:"lastQuery,omitempty"`
}

// ResearchState is the per-request mutable state owned exclusively by the
// orchestrator workflow. No other goroutine/activity reads or writes it, so
// it carries no locks. It is created at loop entry and discarded on return —
// it is never persisted across requests.
type ResearchState struct {
	Findings              []Finding
	Summaries             []string
	NextSearchTopic       string
	URLToSearch           string
	CurrentDepth          int
	FailedAttempts        int
	MaxFailedAttempts     int
	ProcessedURLs         map[string]struct{}
	Subquestions          []string
	AnsweredSubquestions  map[string]struct{}
	SubAnswers            []SubAnswer
	CompletedSteps        int
	TotalExpectedSteps    int
	URLFrequencyMap       map[string]*URLFreqEntry
	urlInsertionOrder     []string // preserves first-seen order for stable tie-break
	StartedAt             time.Time
}

// NewResearchState constructs an empty state with the given bounds.
func NewResearchState(maxDepth int, maxFailedAttempts int) *ResearchState {
	if maxFailedAttempts <= 0 {
		maxFailedAttempts = 3
	}
	return &ResearchState{
		MaxFailedAttempts:    maxFailedAttempts,
		ProcessedURLs:        make(map[string]struct{}),
		AnsweredSubquestions: make(map[string]struct{}),
		URLFrequencyMap:      make(map[string]*URLFreqEntry),
		TotalExpectedSteps:   maxDepth * 5,
		StartedAt:            time.Now(),
	}
}

// AppendFinding appends a finding; findings never shrink during a request.
func (s *ResearchState) AppendFinding(f Finding) {
	s.Findings = append(s.Findings, f)
}

// RecordSearchResponse increments urlFrequencyMap for every URL seen in one
// search response, creating entries on first sight (optionally with title).
func (s *ResearchState) RecordSearchResponse(items []SearchResultItem) {
	inResponse := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		if _, dup := inResponse[it.URL]; dup {
			continue
		}
		inResponse[it.URL] = struct{}{}
		entry, ok := s.URLFrequencyMap[it.URL]
		if !ok {
			entry = &URLFreqEntry{URL: it.URL, Title: it.Title}
			s.URLFrequencyMap[it.URL] = entry
			s.urlInsertionOrder = append(s.urlInsertionOrder, it.URL)
		} else if entry.Title == "" && it.Title != "" {
			entry.Title = it.Title
		}
		entry.Frequency++
	}
}

// SelectTopUnseen returns up to n URLs not already in ProcessedURLs, sorted
// by frequency descending with a stable tie-break on first-seen order. The
// returned URLs are marked processed before this function returns, so a
// later hop in the same request can never re-select them.
func (s *ResearchState) SelectTopUnseen(n int) []URLFreqEntry {
	candidates := make([]URLFreqEntry, 0, len(s.urlInsertionOrder))
	for _, u := range s.urlInsertionOrder {
		if _, seen := s.ProcessedURLs[u]; seen {
			continue
		}
		entry := s.URLFrequencyMap[u]
		if entry == nil {
			continue
		}
		candidates = append(candidates, *entry)
	}
	// Insertion sort by frequency desc; stable because equal-frequency
	// entries are never swapped, preserving first-seen order for ties.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0; j-- {
			a, b := candidates[j-1], candidates[j]
			if a.Frequency >= b.Frequency {
				break
			}
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
		}
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	out := candidates[:n]
	for _, e := range out {
		s.ProcessedURLs[e.URL] = struct{}{}
	}
	return out
}
