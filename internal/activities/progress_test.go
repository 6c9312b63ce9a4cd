package activities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltwave/deepresearch/internal/streaming"
)

func TestEmitProgressInit_NilStreamIsNoop(t *testing.T) {
	a := &Activities{}
	err := a.EmitProgressInit(context.Background(), EmitProgressInitInput{RequestID: "r1", MaxDepth: 6})
	require.NoError(t, err)
}

func TestEmitProgressInit_PublishesEvent(t *testing.T) {
	mgr := streaming.NewManager(0)
	a := &Activities{stream: mgr}
	ch := mgr.Subscribe("r1", 4)

	require.NoError(t, a.EmitProgressInit(context.Background(), EmitProgressInitInput{
		RequestID: "r1", MaxDepth: 6, TotalSteps: 10,
	}))

	evt := <-ch
	assert.Equal(t, streaming.EventProgressInit, evt.Type)
	assert.Equal(t, 6, evt.MaxDepth)
	assert.Equal(t, 10, evt.TotalSteps)
}

func TestEmitActivityDelta_CarriesStatusAndMessage(t *testing.T) {
	mgr := streaming.NewManager(0)
	a := &Activities{stream: mgr}
	ch := mgr.Subscribe("r1", 4)

	require.NoError(t, a.EmitActivityDelta(context.Background(), EmitActivityDeltaInput{
		RequestID: "r1", ActivityType: streaming.ActivitySearch, Status: streaming.StatusPending,
		Message: "searching", Depth: 2,
	}))

	evt := <-ch
	assert.Equal(t, streaming.EventActivityDelta, evt.Type)
	assert.Equal(t, streaming.ActivitySearch, evt.ActivityType)
	assert.Equal(t, streaming.StatusPending, evt.Status)
	assert.Equal(t, "searching", evt.Message)
	assert.Equal(t, 2, evt.Depth)
}

func TestEmitFinish_ClosesTheStream(t *testing.T) {
	mgr := streaming.NewManager(0)
	a := &Activities{stream: mgr}
	ch := mgr.Subscribe("r1", 4)

	require.NoError(t, a.EmitFinish(context.Background(), EmitFinishInput{RequestID: "r1", Content: "done"}))

	evt, open := <-ch
	require.True(t, open, "finish event should be delivered before close")
	assert.Equal(t, streaming.EventFinish, evt.Type)
	assert.Equal(t, "done", evt.Content)

	_, open = <-ch
	assert.False(t, open, "channel should be closed after EmitFinish")
}
