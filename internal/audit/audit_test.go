package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndQueryCompletion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.RecordCompletion(ctx, Record{
		RequestID:    "req-1",
		Mode:         "eval",
		Question:     "Which US president signed the Civil Rights Act of 1964?",
		Answer:       "Explanation: ...\nExact Answer: Lyndon B. Johnson\nConfidence: 90%",
		Hops:         1,
		StopReason:   "high_confidence",
		FindingCount: 5,
		DurationMs:   1200,
		CompletedAt:  time.Now(),
	})
	require.NoError(t, err)

	records, err := store.RecentByMode(ctx, "eval", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "req-1", records[0].RequestID)
	require.Equal(t, 5, records[0].FindingCount)
}

func TestRecentByModeFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, mode := range []string{"eval", "interactive", "eval"} {
		require.NoError(t, store.RecordCompletion(ctx, Record{
			RequestID:   "req",
			Mode:        mode,
			Question:    "q",
			Answer:      "a",
			CompletedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := store.RecentByMode(ctx, "eval", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// newest first
	require.True(t, records[0].CompletedAt.After(records[1].CompletedAt) || records[0].CompletedAt.Equal(records[1].CompletedAt))
}
