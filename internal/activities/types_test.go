package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTopUnseen_OrdersByFrequencyThenInsertion(t *testing.T) {
	s := NewResearchState(6, 3)
	s.RecordSearchResponse([]SearchResultItem{
		{URL: "https://a.example", Title: "A"},
		{URL: "https://b.example", Title: "B"},
		{URL: "https://c.example", Title: "C"},
	})
	s.RecordSearchResponse([]SearchResultItem{
		{URL: "https://b.example"},
		{URL: "https://c.example"},
	})
	s.RecordSearchResponse([]SearchResultItem{
		{URL: "https://c.example"},
	})
	// frequencies: c=3, b=2, a=1

	top := s.SelectTopUnseen(2)
	require.Len(t, top, 2)
	assert.Equal(t, "https://c.example", top[0].URL)
	assert.Equal(t, "https://b.example", top[1].URL)
}

func TestSelectTopUnseen_NeverReselectsProcessedURLs(t *testing.T) {
	s := NewResearchState(6, 3)
	s.RecordSearchResponse([]SearchResultItem{{URL: "https://a.example"}, {URL: "https://b.example"}})

	first := s.SelectTopUnseen(1)
	require.Len(t, first, 1)

	second := s.SelectTopUnseen(5)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].URL, second[0].URL)
}

func TestSelectTopUnseen_StableTieBreakOnFirstSeenOrder(t *testing.T) {
	s := NewResearchState(6, 3)
	s.RecordSearchResponse([]SearchResultItem{
		{URL: "https://first.example"},
		{URL: "https://second.example"},
		{URL: "https://third.example"},
	})
	// all tied at frequency 1; insertion order must be preserved
	top := s.SelectTopUnseen(3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"https://first.example", "https://second.example", "https://third.example"},
		[]string{top[0].URL, top[1].URL, top[2].URL})
}

func TestRecordSearchResponse_IgnoresEmptyURL(t *testing.T) {
	s := NewResearchState(6, 3)
	s.RecordSearchResponse([]SearchResultItem{{URL: ""}, {URL: "https://a.example"}})
	assert.Len(t, s.URLFrequencyMap, 1)
}

func TestNewResearchState_DefaultsMaxFailedAttempts(t *testing.T) {
	s := NewResearchState(6, 0)
	assert.Equal(t, 3, s.MaxFailedAttempts)
	assert.Equal(t, 30, s.TotalExpectedSteps)
}
