package activities

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearch struct {
	calls   int
	results []SearchResult
	err     error
}

func (f *fakeSearch) Search(ctx context.Context, query string) (SearchResult, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return SearchResult{}, f.err
	}
	if f.calls < len(f.results) {
		return f.results[f.calls], nil
	}
	return f.results[len(f.results)-1], nil
}

func TestSearch_SucceedsOnFirstAttempt(t *testing.T) {
	fake := &fakeSearch{results: []SearchResult{{Success: true, Data: []SearchResultItem{{URL: "https://a.example"}}}}}
	a := &Activities{webSearch: fake}

	result, err := a.Search(context.Background(), SearchInput{Query: "q"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, fake.calls)
}

func TestSearch_PropagatesContextCancellationDuringBackoff(t *testing.T) {
	fake := &fakeSearch{results: []SearchResult{{Success: false, Error: "no results"}}}
	a := &Activities{webSearch: fake}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled: the first retry's backoff sleep returns immediately

	_, err := a.Search(ctx, SearchInput{Query: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
