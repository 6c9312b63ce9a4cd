package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerPublishSubscribe(t *testing.T) {
	m := NewManager(8)
	ch := m.Subscribe("req-1", 4)
	defer m.Unsubscribe("req-1", ch)

	m.Publish("req-1", Event{Type: EventProgressInit, MaxDepth: 6, TotalSteps: 30})

	select {
	case evt := <-ch:
		assert.Equal(t, EventProgressInit, evt.Type)
		assert.Equal(t, uint64(0), evt.Seq)
		assert.Equal(t, "req-1", evt.RequestID)
	default:
		t.Fatal("expected an event on the subscriber channel")
	}
}

func TestManagerReplaySinceWithinRing(t *testing.T) {
	m := NewManager(3)
	for i := 0; i < 5; i++ {
		m.Publish("req-2", Event{Type: EventActivityDelta})
	}
	// capacity 3 means only seq 2,3,4 survive.
	evs := m.ReplaySince("req-2", 0)
	require.Len(t, evs, 3)
	assert.Equal(t, uint64(2), evs[0].Seq)
	assert.Equal(t, uint64(4), evs[2].Seq)

	evs = m.ReplaySince("req-2", 3)
	require.Len(t, evs, 1)
	assert.Equal(t, uint64(4), evs[0].Seq)
}

func TestManagerUnsubscribeClosesChannel(t *testing.T) {
	m := NewManager(4)
	ch := m.Subscribe("req-3", 1)
	m.Unsubscribe("req-3", ch)

	_, open := <-ch
	assert.False(t, open)
}

func TestManagerCloseDropsHistoryAndSubscribers(t *testing.T) {
	m := NewManager(4)
	ch := m.Subscribe("req-4", 1)
	m.Publish("req-4", Event{Type: EventFinish, Content: "done"})

	m.Close("req-4")

	// The event buffered before Close is still delivered; the closed state
	// is observed on the next receive.
	evt, open := <-ch
	require.True(t, open)
	assert.Equal(t, EventFinish, evt.Type)

	_, open = <-ch
	assert.False(t, open)
	assert.Empty(t, m.ReplaySince("req-4", 0))
}
